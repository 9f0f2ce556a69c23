// Package lookup provides a lazily built key to id index over a paginated
// listing. Pages are fetched only until the requested key turns up, so the
// cost of a lookup is bounded by the position of the first key ever asked for.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultMaxPages bounds how many pages a cache will ever fetch
const DefaultMaxPages = 200

// ErrPageLimit is returned when the listing has more pages than MaxPages
var ErrPageLimit = errors.New("lookup page limit reached")

// PageFunc fetches one page of key/id pairs. An empty pageToken means the
// first page; an empty next means the listing is exhausted.
type PageFunc func(ctx context.Context, pageToken string) (pairs map[string]string, next string, err error)

// Result is delivered by LookupAsync
type Result struct {
	ID    string
	Found bool
	Err   error
}

// Stats describes the cache contents
type Stats struct {
	Entries int
	Pages   int
	Loaded  bool
}

// Option configures a Cache
type Option func(*Cache)

// WithMaxPages overrides DefaultMaxPages. Values below 1 are ignored.
func WithMaxPages(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache is safe for concurrent use; lookups are serialized so a page is
// never fetched twice.
type Cache struct {
	fetch    PageFunc
	maxPages int
	logger   *slog.Logger

	mu     sync.Mutex
	ids    map[string]string
	next   string
	pages  int
	loaded bool
}

// New creates an empty, unloaded cache over fetch
func New(fetch PageFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch:    fetch,
		maxPages: DefaultMaxPages,
		logger:   slog.Default(),
		ids:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the id stored for key, fetching further pages on a miss
// until the key is found or the listing is exhausted. A fetch error leaves
// the pages merged so far in place.
func (c *Cache) Lookup(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if id, ok := c.ids[key]; ok {
			return id, true, nil
		}
		if c.loaded {
			return "", false, nil
		}
		if c.pages >= c.maxPages {
			return "", false, fmt.Errorf("%w: %d pages", ErrPageLimit, c.pages)
		}
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		pairs, next, err := c.fetch(ctx, c.next)
		if err != nil {
			c.logger.Warn("lookup page fetch failed", "page", c.pages+1, "error", err)
			return "", false, fmt.Errorf("fetch page %d: %w", c.pages+1, err)
		}
		for k, id := range pairs {
			c.ids[k] = id
		}
		c.next = next
		c.pages++
		c.loaded = next == ""
		c.logger.Debug("lookup page merged",
			"page", c.pages,
			"entries", len(c.ids),
			"loaded", c.loaded,
		)
	}
}

// LookupAsync runs Lookup on its own goroutine. The channel receives exactly
// one Result.
func (c *Cache) LookupAsync(ctx context.Context, key string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		id, found, err := c.Lookup(ctx, key)
		ch <- Result{ID: id, Found: found, Err: err}
	}()
	return ch
}

// Invalidate drops every entry and marks the cache unloaded. Call it whenever
// the underlying listing may have changed.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = make(map[string]string)
	c.next = ""
	c.pages = 0
	c.loaded = false
	c.logger.Debug("lookup cache invalidated")
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.ids), Pages: c.pages, Loaded: c.loaded}
}
