// Package request implements the asynchronous request lifecycle shared by
// every service. A Request runs one Backend call at a time on its own
// goroutine and reports terminal transitions to a single owner.
package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/tubular/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Async implements domain.Request over a synchronous domain.Backend.
type Async struct {
	service string
	backend domain.Backend
	timeout time.Duration
	logger  *slog.Logger

	mu         sync.Mutex
	status     domain.Status
	result     *domain.Result
	err        error
	cancel     context.CancelFunc
	generation uint64 // bumped on every execute and cancel; stale completions are dropped
	onFinished func(domain.Request)
}

// Option configures an Async request
type Option func(*Async)

// WithTimeout bounds each backend call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Async) { a.timeout = d }
}

// WithLogger sets the logger used for lifecycle records
func WithLogger(logger *slog.Logger) Option {
	return func(a *Async) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a request bound to service and backed by backend
func New(service string, backend domain.Backend, opts ...Option) *Async {
	a := &Async{
		service: service,
		backend: backend,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Async) Service() string { return a.service }

// List starts an asynchronous list call. Ignored while Loading.
func (a *Async) List(req domain.ListRequest) {
	a.execute("list", func(ctx context.Context) (*domain.Result, error) {
		return a.backend.List(ctx, req)
	})
}

// Search starts an asynchronous search call. Ignored while Loading.
func (a *Async) Search(req domain.SearchRequest) {
	a.execute("search", func(ctx context.Context) (*domain.Result, error) {
		return a.backend.Search(ctx, req)
	})
}

// Cancel moves a Loading request to Canceled and notifies the owner once.
// Any later completion from the backend is discarded.
func (a *Async) Cancel() {
	a.mu.Lock()
	if a.status != domain.StatusLoading {
		a.mu.Unlock()
		return
	}
	a.generation++
	a.status = domain.StatusCanceled
	a.result = nil
	a.err = nil
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	fn := a.onFinished
	a.mu.Unlock()

	a.logger.Debug("request canceled", "service", a.service)
	if fn != nil {
		fn(a)
	}
}

func (a *Async) Status() domain.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Result returns the last page when Ready, nil otherwise
func (a *Async) Result() *domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != domain.StatusReady {
		return nil
	}
	return a.result
}

// Err returns the failure cause when Failed, nil otherwise
func (a *Async) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != domain.StatusFailed {
		return nil
	}
	return a.err
}

// ErrorString returns a human-readable failure description when Failed
func (a *Async) ErrorString() string {
	if err := a.Err(); err != nil {
		return err.Error()
	}
	return ""
}

func (a *Async) OnFinished(fn func(domain.Request)) {
	a.mu.Lock()
	a.onFinished = fn
	a.mu.Unlock()
}

func (a *Async) execute(op string, call func(ctx context.Context) (*domain.Result, error)) {
	a.mu.Lock()
	if a.status == domain.StatusLoading {
		a.mu.Unlock()
		return
	}
	a.generation++
	gen := a.generation
	a.status = domain.StatusLoading
	a.result = nil
	a.err = nil

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if a.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), a.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	a.cancel = cancel
	a.mu.Unlock()

	id := uuid.NewString()
	a.logger.Debug("request started", "service", a.service, "op", op, "requestID", id)

	go func() {
		defer cancel()
		start := time.Now()
		result, err := safeCall(ctx, call)
		a.finish(gen, result, err)
		a.logger.Debug("request finished",
			"service", a.service,
			"op", op,
			"requestID", id,
			"elapsed", time.Since(start),
			"error", err,
		)
	}()
}

func (a *Async) finish(gen uint64, result *domain.Result, err error) {
	a.mu.Lock()
	if gen != a.generation {
		// Canceled or superseded while in flight
		a.mu.Unlock()
		return
	}
	a.cancel = nil
	switch {
	case err != nil:
		a.status = domain.StatusFailed
		a.err = err
	case result == nil:
		a.status = domain.StatusFailed
		a.err = fmt.Errorf("%w: empty response", domain.ErrDecode)
	default:
		a.status = domain.StatusReady
		a.result = result
	}
	status, failure := a.status, a.err
	fn := a.onFinished
	a.mu.Unlock()

	if status == domain.StatusFailed {
		a.logger.Warn("request failed", "service", a.service, "error", failure)
	}
	if fn != nil {
		fn(a)
	}
}

// safeCall turns a backend panic into a Failed request instead of crashing
// the process.
func safeCall(ctx context.Context, call func(ctx context.Context) (*domain.Result, error)) (result *domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: backend panic: %v", domain.ErrTransport, r)
		}
	}()
	return call(ctx)
}

// Await blocks until r leaves Loading or ctx is done. It installs its own
// finished handler, so it must only be used by the request's owner.
func Await(ctx context.Context, r domain.Request, start func()) (domain.Status, error) {
	done := make(chan struct{}, 1)
	r.OnFinished(func(domain.Request) {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	defer r.OnFinished(nil)

	start()
	if r.Status() == domain.StatusLoading {
		select {
		case <-done:
		case <-ctx.Done():
			r.Cancel()
			return domain.StatusCanceled, ctx.Err()
		}
	}

	status := r.Status()
	switch status {
	case domain.StatusFailed:
		return status, r.Err()
	case domain.StatusCanceled:
		return status, context.Canceled
	case domain.StatusNull:
		return status, errors.New("request was not started")
	}
	return status, nil
}
