// Package registry maps service identifiers to the backend that services
// them. Built-in backends are rebuilt from configuration; plugin backends are
// registered once at discovery time.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/request"
)

// Provenance records where a service implementation came from
type Provenance string

const (
	ProvenanceBuiltin Provenance = "builtin"
	ProvenancePlugin  Provenance = "plugin"
)

// Credentials holds the per-service secrets a built-in backend needs
type Credentials struct {
	APIKey       string
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	UserID       string
}

// Config is threaded into the registry at construction and replaced by Reset.
type Config struct {
	PageSize    int
	SafeSearch  bool
	Timeout     time.Duration
	Disabled    []string
	Credentials map[string]Credentials // keyed by service id
}

// CredentialsFor returns the credentials configured for service
func (c Config) CredentialsFor(service string) Credentials {
	if c.Credentials == nil {
		return Credentials{}
	}
	return c.Credentials[service]
}

// ServiceInfo describes a registered service
type ServiceInfo struct {
	ID           string
	Name         string
	Provenance   Provenance
	Kinds        []domain.ResourceKind
	SearchOrders []string
}

// Supports reports whether the service can serve kind. An empty Kinds list
// means all kinds.
func (s ServiceInfo) Supports(kind domain.ResourceKind) bool {
	return len(s.Kinds) == 0 || slices.Contains(s.Kinds, kind)
}

// BackendFactory builds a built-in backend from the current configuration
type BackendFactory func(cfg Config, logger *slog.Logger) (domain.Backend, error)

// Factory produces a fresh Request bound to one service
type Factory func() domain.Request

type entry struct {
	info    ServiceInfo
	factory BackendFactory // nil for plugins
	backend domain.Backend
	err     error // set when the built-in factory rejected the config
}

// Registry is safe for concurrent reads. Writes happen at startup
// (registration) and on Reset.
type Registry struct {
	mu      sync.RWMutex
	cfg     Config
	entries map[string]*entry
	logger  *slog.Logger
}

// New creates an empty registry with cfg
func New(cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:     cfg,
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// RegisterBuiltin adds a statically known service. The backend is built
// immediately from the current configuration.
func (r *Registry) RegisterBuiltin(info ServiceInfo, factory BackendFactory) error {
	if info.ID == "" {
		return fmt.Errorf("service id is required")
	}
	if factory == nil {
		return fmt.Errorf("backend factory is required for %s", info.ID)
	}
	info.Provenance = ProvenanceBuiltin

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[info.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateService, info.ID)
	}
	e := &entry{info: info, factory: factory}
	r.build(e)
	r.entries[info.ID] = e
	r.logger.Debug("registered builtin service", "service", info.ID)
	return nil
}

// RegisterPlugin adds an externally supplied service
func (r *Registry) RegisterPlugin(info ServiceInfo, backend domain.Backend) error {
	if info.ID == "" {
		return fmt.Errorf("service id is required")
	}
	if backend == nil {
		return fmt.Errorf("backend is required for %s", info.ID)
	}
	info.Provenance = ProvenancePlugin

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[info.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateService, info.ID)
	}
	r.entries[info.ID] = &entry{info: info, backend: backend}
	r.logger.Info("registered plugin service", "service", info.ID, "name", info.Name)
	return nil
}

// Reset replaces the configuration and rebuilds every built-in backend.
// Requests created earlier pick up the new backend on their next call.
func (r *Registry) Reset(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	for _, e := range r.entries {
		if e.factory != nil {
			r.build(e)
		}
	}
	r.logger.Info("registry reset", "services", len(r.entries))
}

// Config returns the current configuration
func (r *Registry) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Resolve looks up the factory for service. It fails with ErrUnknownService
// or ErrServiceDisabled.
func (r *Registry) Resolve(service string) (Factory, error) {
	if _, err := r.lookup(service); err != nil {
		return nil, err
	}
	return func() domain.Request {
		opts := []request.Option{request.WithLogger(r.logger)}
		if timeout := r.Config().Timeout; timeout > 0 {
			opts = append(opts, request.WithTimeout(timeout))
		}
		return request.New(service, &boundBackend{registry: r, service: service}, opts...)
	}, nil
}

// NewRequest resolves service and creates a Request. It returns nil when the
// service cannot be resolved.
func (r *Registry) NewRequest(service string) domain.Request {
	factory, err := r.Resolve(service)
	if err != nil {
		r.logger.Warn("cannot create request", "service", service, "error", err)
		return nil
	}
	return factory()
}

// Info returns the descriptor of service
func (r *Registry) Info(service string) (ServiceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[service]
	if !ok {
		return ServiceInfo{}, false
	}
	return e.info, true
}

// Services returns all registered services sorted by id, built-ins first
func (r *Registry) Services() []ServiceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ServiceInfo, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provenance != out[j].Provenance {
			return out[i].Provenance == ProvenanceBuiltin
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Enabled reports whether service is registered and not disabled
func (r *Registry) Enabled(service string) bool {
	_, err := r.lookup(service)
	return err == nil
}

func (r *Registry) lookup(service string) (domain.Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[service]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownService, service)
	}
	if slices.Contains(r.cfg.Disabled, service) {
		return nil, fmt.Errorf("%w: %q", domain.ErrServiceDisabled, service)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.backend, nil
}

// build must be called with mu held
func (r *Registry) build(e *entry) {
	backend, err := e.factory(r.cfg, r.logger)
	if err != nil {
		r.logger.Warn("builtin service unavailable", "service", e.info.ID, "error", err)
		e.backend = nil
		e.err = fmt.Errorf("%w: %s: %v", domain.ErrServiceDisabled, e.info.ID, err)
		return
	}
	e.backend = backend
	e.err = nil
}

// boundBackend defers backend lookup to call time so a Reset takes effect
// for requests that already exist.
type boundBackend struct {
	registry *Registry
	service  string
}

func (b *boundBackend) List(ctx context.Context, req domain.ListRequest) (*domain.Result, error) {
	backend, err := b.registry.lookup(b.service)
	if err != nil {
		return nil, err
	}
	return backend.List(ctx, req)
}

func (b *boundBackend) Search(ctx context.Context, req domain.SearchRequest) (*domain.Result, error) {
	backend, err := b.registry.lookup(b.service)
	if err != nil {
		return nil, err
	}
	return backend.Search(ctx, req)
}
