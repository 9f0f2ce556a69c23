// Package collection implements the paginated, observable item list shared by
// every resource kind. A Collection issues list/search requests through a
// Resolver, appends decoded pages in arrival order and loads further pages on
// demand.
package collection

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/tubular/internal/domain"
)

// Resolver creates Requests for a service. *registry.Registry satisfies it.
type Resolver interface {
	NewRequest(service string) domain.Request
}

// Decoder builds a typed item from a raw record, tagged with service
type Decoder[T domain.Item] func(service string, raw map[string]any) (T, error)

// Mode is the kind of query a collection was last issued
type Mode int

const (
	ModeEmpty Mode = iota
	ModeList
	ModeSearch
)

type query struct {
	mode       Mode
	resourceID string
	text       string
	order      string
	fields     []string
	filters    map[string]any
	params     map[string]any
}

// Option adds optional parameters to List and Search
type Option func(*query)

// WithFields restricts the fields the backend returns
func WithFields(fields ...string) Option {
	return func(q *query) { q.fields = fields }
}

// WithFilters passes service-specific filters through to the backend,
// e.g. {"relatedToVideoId": id} or {"videoId": id}.
func WithFilters(filters map[string]any) Option {
	return func(q *query) { q.filters = filters }
}

// WithParams passes request parameters through, e.g. {"maxResults": 20}
func WithParams(params map[string]any) Option {
	return func(q *query) { q.params = params }
}

type subscription struct {
	id       int
	observer domain.Observer
}

// Collection is an ordered list of items of one resource kind loaded from the
// active service. It is a single logical actor: completion callbacks are
// serialized with consumer calls, and events are delivered in state-change
// order.
type Collection[T domain.Item] struct {
	kind     domain.ResourceKind
	resolver Resolver
	decode   Decoder[T]
	logger   *slog.Logger

	mu      sync.Mutex
	service string
	q       query
	items   []T
	next    string
	req     domain.Request
	status  domain.Status
	err     error

	observers []subscription
	nextSubID int
	pending   []domain.Event
	emitMu    sync.Mutex // held by the goroutine currently delivering events
}

// New creates an empty collection of kind
func New[T domain.Item](kind domain.ResourceKind, resolver Resolver, decode Decoder[T], logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{
		kind:     kind,
		resolver: resolver,
		decode:   decode,
		logger:   logger,
	}
}

// Subscribe registers o for events and returns a function that removes it
func (c *Collection[T]) Subscribe(o domain.Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.observers = append(c.observers, subscription{id: id, observer: o})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.observers = slices.DeleteFunc(c.observers, func(s subscription) bool { return s.id == id })
	}
}

func (c *Collection[T]) Kind() domain.ResourceKind { return c.kind }

func (c *Collection[T]) Service() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.service
}

// SetService switches the active service. Items, the continuation token and
// any pending request are dropped. No-op when id is already active.
func (c *Collection[T]) SetService(id string) {
	c.mu.Lock()
	if id == c.service {
		c.mu.Unlock()
		return
	}
	c.service = id
	old := c.req
	c.req = nil
	c.clearLocked()
	c.err = nil
	if c.status != domain.StatusNull {
		c.setStatusLocked(domain.StatusNull)
	}
	c.mu.Unlock()

	if old != nil {
		old.OnFinished(nil)
		old.Cancel()
	}
	c.logger.Debug("collection service changed", "kind", c.kind, "service", id)
	c.flush()
}

// List clears the collection and loads the first page of resourceID.
// Ignored while Loading.
func (c *Collection[T]) List(resourceID string, opts ...Option) {
	c.mu.Lock()
	if c.status == domain.StatusLoading {
		c.mu.Unlock()
		return
	}
	c.logger.Debug("collection list", "kind", c.kind, "service", c.service, "resourceID", resourceID)
	c.clearLocked()
	c.q = newQuery(ModeList, opts)
	c.q.resourceID = resourceID
	start := c.prepareLocked("")
	c.mu.Unlock()

	if start != nil {
		start()
	}
	c.flush()
}

// Search clears the collection and loads the first page of results for text
// in the given order. Ignored while Loading.
func (c *Collection[T]) Search(text, order string, opts ...Option) {
	c.mu.Lock()
	if c.status == domain.StatusLoading {
		c.mu.Unlock()
		return
	}
	c.logger.Debug("collection search", "kind", c.kind, "service", c.service, "query", text, "order", order)
	c.clearLocked()
	c.q = newQuery(ModeSearch, opts)
	c.q.text = text
	c.q.order = order
	start := c.prepareLocked("")
	c.mu.Unlock()

	if start != nil {
		start()
	}
	c.flush()
}

// CanFetchMore is true when not Loading and a continuation token is held
func (c *Collection[T]) CanFetchMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canFetchMoreLocked()
}

// FetchMore loads the next page and appends it. No-op unless CanFetchMore.
func (c *Collection[T]) FetchMore() {
	c.mu.Lock()
	if !c.canFetchMoreLocked() {
		c.mu.Unlock()
		return
	}
	start := c.prepareLocked(c.next)
	c.mu.Unlock()

	if start != nil {
		start()
	}
	c.flush()
}

// Reload clears the collection and re-issues the current query from the
// first page. Ignored while Loading or before any query was issued.
func (c *Collection[T]) Reload() {
	c.mu.Lock()
	if c.status == domain.StatusLoading || c.q.mode == ModeEmpty {
		c.mu.Unlock()
		return
	}
	c.logger.Debug("collection reload", "kind", c.kind, "service", c.service)
	c.clearLocked()
	start := c.prepareLocked("")
	c.mu.Unlock()

	if start != nil {
		start()
	}
	c.flush()
}

// Cancel cancels the in-flight request, if any
func (c *Collection[T]) Cancel() {
	c.mu.Lock()
	req := c.req
	c.mu.Unlock()
	if req != nil {
		req.Cancel()
	}
}

// Append adds item at the end
func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	c.appendLocked(item)
	c.mu.Unlock()
	c.flush()
}

// Insert adds item at row, shifting later rows down. Out-of-range rows append.
func (c *Collection[T]) Insert(row int, item T) {
	c.mu.Lock()
	if row < 0 || row >= len(c.items) {
		c.appendLocked(item)
	} else {
		c.items = slices.Insert(c.items, row, item)
		c.queueLocked(domain.Event{Type: domain.EventRowsInserted, Start: row, End: row})
		c.queueLocked(domain.Event{Type: domain.EventCountChanged, Count: len(c.items)})
	}
	c.mu.Unlock()
	c.flush()
}

// Remove deletes the item at row. Out-of-range rows are ignored.
func (c *Collection[T]) Remove(row int) {
	c.mu.Lock()
	if row >= 0 && row < len(c.items) {
		c.items = slices.Delete(c.items, row, row+1)
		c.queueLocked(domain.Event{Type: domain.EventRowsRemoved, Start: row, End: row})
		c.queueLocked(domain.Event{Type: domain.EventCountChanged, Count: len(c.items)})
	}
	c.mu.Unlock()
	c.flush()
}

// Replace swaps the item at row in place, e.g. after a favourite toggle
func (c *Collection[T]) Replace(row int, item T) {
	c.mu.Lock()
	if row >= 0 && row < len(c.items) {
		c.items[row] = item
		c.queueLocked(domain.Event{Type: domain.EventRowsChanged, Start: row, End: row})
	}
	c.mu.Unlock()
	c.flush()
}

func (c *Collection[T]) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Get returns the item at row
func (c *Collection[T]) Get(row int) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if row < 0 || row >= len(c.items) {
		var zero T
		return zero, false
	}
	return c.items[row], true
}

// Items returns a copy of all items in order
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// IndexOf returns the row of the item with id, or -1
func (c *Collection[T]) IndexOf(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.IndexFunc(c.items, func(item T) bool { return item.GetID() == id })
}

func (c *Collection[T]) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ErrorString describes the last failure. Empty unless Failed.
func (c *Collection[T]) ErrorString() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != domain.StatusFailed || c.err == nil {
		return ""
	}
	return c.err.Error()
}

// Err returns the last failure. Nil unless Failed.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != domain.StatusFailed {
		return nil
	}
	return c.err
}

// Next returns the continuation token
func (c *Collection[T]) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

func (c *Collection[T]) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.mode
}

// ResourceID returns the resource of the current List query
func (c *Collection[T]) ResourceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.resourceID
}

// Query returns the text and order of the current Search query
func (c *Collection[T]) Query() (text, order string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.text, c.q.order
}

// Filter fuzzy-matches query against item titles and returns matching rows,
// best match first. It never changes the collection.
func (c *Collection[T]) Filter(pattern string) []int {
	pattern = strings.TrimSpace(pattern)
	c.mu.Lock()
	titles := make([]string, len(c.items))
	for i, item := range c.items {
		titles[i] = strings.ToLower(item.GetTitle())
	}
	c.mu.Unlock()

	if pattern == "" {
		rows := make([]int, len(titles))
		for i := range rows {
			rows[i] = i
		}
		return rows
	}

	matches := fuzzy.Find(strings.ToLower(pattern), titles)
	rows := make([]int, len(matches))
	for i, m := range matches {
		rows[i] = m.Index
	}
	return rows
}

// --- Private helpers ---

func newQuery(mode Mode, opts []Option) query {
	q := query{mode: mode}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

func (c *Collection[T]) canFetchMoreLocked() bool {
	return c.status != domain.StatusLoading && c.next != ""
}

func (c *Collection[T]) clearLocked() {
	if len(c.items) > 0 {
		c.items = nil
		c.queueLocked(domain.Event{Type: domain.EventRowsReset})
		c.queueLocked(domain.Event{Type: domain.EventCountChanged, Count: 0})
	}
	c.next = ""
}

func (c *Collection[T]) appendLocked(item T) {
	c.items = append(c.items, item)
	row := len(c.items) - 1
	c.queueLocked(domain.Event{Type: domain.EventRowsInserted, Start: row, End: row})
	c.queueLocked(domain.Event{Type: domain.EventCountChanged, Count: len(c.items)})
}

// requestLocked returns the collection's request, creating it on first use
func (c *Collection[T]) requestLocked() domain.Request {
	if c.req == nil && c.resolver != nil {
		if req := c.resolver.NewRequest(c.service); req != nil {
			req.OnFinished(c.onRequestFinished)
			c.req = req
		}
	}
	return c.req
}

// prepareLocked moves the collection to Loading and returns the call that
// starts the request. The call must run after mu is released.
func (c *Collection[T]) prepareLocked(pageToken string) func() {
	req := c.requestLocked()
	if req == nil {
		c.err = fmt.Errorf("%w: %q", domain.ErrUnknownService, c.service)
		c.setStatusLocked(domain.StatusFailed)
		c.logger.Warn("collection has no request", "kind", c.kind, "service", c.service)
		return nil
	}

	c.err = nil
	c.setStatusLocked(domain.StatusLoading)

	q := c.q
	kind := c.kind
	switch q.mode {
	case ModeSearch:
		sr := domain.SearchRequest{
			Kind:      kind,
			Query:     q.text,
			Order:     q.order,
			Fields:    q.fields,
			Filters:   q.filters,
			Params:    q.params,
			PageToken: pageToken,
		}
		return func() { req.Search(sr) }
	default:
		lr := domain.ListRequest{
			Kind:       kind,
			ResourceID: q.resourceID,
			Fields:     q.fields,
			Filters:    q.filters,
			Params:     q.params,
			PageToken:  pageToken,
		}
		return func() { req.List(lr) }
	}
}

func (c *Collection[T]) onRequestFinished(req domain.Request) {
	c.mu.Lock()
	if req != c.req {
		// Detached by SetService
		c.mu.Unlock()
		return
	}

	switch req.Status() {
	case domain.StatusReady:
		c.applyResultLocked(req.Result())
		c.err = nil
		c.setStatusLocked(domain.StatusReady)
	case domain.StatusCanceled:
		c.err = nil
		c.setStatusLocked(domain.StatusCanceled)
	default:
		err := req.Err()
		if err == nil {
			err = errors.New(req.ErrorString())
		}
		c.err = err
		c.logger.Error("collection request failed", "kind", c.kind, "service", c.service, "error", err)
		c.setStatusLocked(domain.StatusFailed)
	}
	c.mu.Unlock()
	c.flush()
}

func (c *Collection[T]) applyResultLocked(result *domain.Result) {
	if result == nil {
		c.next = ""
		return
	}
	c.next = result.Next

	start := len(c.items)
	for _, raw := range result.Items {
		item, err := c.decode(c.service, raw)
		if err != nil {
			c.logger.Warn("skipping undecodable item", "kind", c.kind, "service", c.service, "error", err)
			continue
		}
		c.items = append(c.items, item)
	}
	if end := len(c.items) - 1; end >= start {
		c.queueLocked(domain.Event{Type: domain.EventRowsInserted, Start: start, End: end})
		c.queueLocked(domain.Event{Type: domain.EventCountChanged, Count: len(c.items)})
	}
	c.logger.Debug("collection page loaded",
		"kind", c.kind,
		"service", c.service,
		"count", len(c.items)-start,
		"total", len(c.items),
		"hasNext", c.next != "",
	)
}

func (c *Collection[T]) setStatusLocked(s domain.Status) {
	c.status = s
	c.queueLocked(domain.Event{Type: domain.EventStatusChanged, Status: s})
}

func (c *Collection[T]) queueLocked(ev domain.Event) {
	c.pending = append(c.pending, ev)
}

// flush delivers queued events outside mu. Only one goroutine delivers at a
// time so events keep their order; a reentrant call from an observer returns
// immediately and its events are drained by the active deliverer.
func (c *Collection[T]) flush() {
	for {
		if !c.emitMu.TryLock() {
			return
		}
		for {
			c.mu.Lock()
			if len(c.pending) == 0 {
				c.mu.Unlock()
				break
			}
			ev := c.pending[0]
			c.pending = c.pending[1:]
			subs := slices.Clone(c.observers)
			c.mu.Unlock()

			for _, s := range subs {
				s.observer.OnEvent(ev)
			}
		}
		c.emitMu.Unlock()

		// An event queued between the last check and Unlock has no deliverer yet
		c.mu.Lock()
		empty := len(c.pending) == 0
		c.mu.Unlock()
		if empty {
			return
		}
	}
}
