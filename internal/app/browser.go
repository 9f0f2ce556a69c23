package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/tubular/internal/backend/youtube"
	"github.com/mmcdole/tubular/internal/collection"
	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/lookup"
	"github.com/mmcdole/tubular/internal/registry"
)

// Browser tracks the active service and builds collections bound to it.
// Searches issued through it are recorded in the store.
type Browser struct {
	reg          *registry.Registry
	store        domain.Store
	subs         *lookup.Cache
	defaultOrder string
	persist      func(service string) error
	logger       *slog.Logger

	mu      sync.RWMutex
	service string
}

// BrowserOptions configures a Browser
type BrowserOptions struct {
	Service      string
	DefaultOrder string
	// Persist is called after the active service changes. Optional.
	Persist func(service string) error
}

func NewBrowser(reg *registry.Registry, store domain.Store, subs *lookup.Cache, opts BrowserOptions, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	order := opts.DefaultOrder
	if order == "" {
		order = domain.OrderRelevance
	}
	return &Browser{
		reg:          reg,
		store:        store,
		subs:         subs,
		defaultOrder: order,
		persist:      opts.Persist,
		logger:       logger,
		service:      opts.Service,
	}
}

func (b *Browser) Service() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.service
}

// SetService makes id the active service. It must be registered.
func (b *Browser) SetService(id string) error {
	if _, ok := b.reg.Info(id); !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownService, id)
	}

	b.mu.Lock()
	changed := b.service != id
	b.service = id
	b.mu.Unlock()

	if !changed {
		return nil
	}
	b.logger.Info("active service changed", "service", id)
	if b.persist != nil {
		if err := b.persist(id); err != nil {
			b.logger.Warn("failed to persist active service", "service", id, "error", err)
			return err
		}
	}
	return nil
}

// Services lists registered services, enabled or not
func (b *Browser) Services() []registry.ServiceInfo {
	return b.reg.Services()
}

// Info describes the active service
func (b *Browser) Info() (registry.ServiceInfo, bool) {
	return b.reg.Info(b.Service())
}

// === Collections bound to the active service ===

func (b *Browser) Videos() *collection.Videos {
	c := collection.NewVideos(b.reg, b.logger)
	c.SetService(b.Service())
	return c
}

func (b *Browser) Playlists() *collection.Playlists {
	c := collection.NewPlaylists(b.reg, b.logger)
	c.SetService(b.Service())
	return c
}

func (b *Browser) Users() *collection.Users {
	c := collection.NewUsers(b.reg, b.logger)
	c.SetService(b.Service())
	return c
}

func (b *Browser) Comments() *collection.Comments {
	c := collection.NewComments(b.reg, b.logger)
	c.SetService(b.Service())
	return c
}

// === Search ===

// SearchOrder returns the order to use for the active service: the last one
// chosen there, else the configured default.
func (b *Browser) SearchOrder() string {
	if order, ok := b.store.SearchOrder(b.Service()); ok {
		return order
	}
	return b.defaultOrder
}

// SetSearchOrder remembers order for the active service
func (b *Browser) SetSearchOrder(order string) error {
	return b.store.SetSearchOrder(b.Service(), order)
}

// RecordSearch adds query to the active service's history
func (b *Browser) RecordSearch(query string) {
	if err := b.store.AddSearch(b.Service(), query); err != nil {
		b.logger.Warn("failed to record search", "service", b.Service(), "error", err)
	}
}

// History returns the active service's searches, newest first
func (b *Browser) History() []string {
	return b.store.Searches(b.Service())
}

// RemoveSearch deletes one entry from the active service's history
func (b *Browser) RemoveSearch(query string) error {
	return b.store.RemoveSearch(b.Service(), query)
}

func (b *Browser) ClearHistory() error {
	return b.store.ClearSearches(b.Service())
}

// Suggestions fuzzy-matches input against the search history
func (b *Browser) Suggestions(input string, limit int) []string {
	return b.store.Suggest(b.Service(), input, limit)
}

// Search records query and runs it on c. An empty order means SearchOrder();
// an explicit order is remembered for the service.
func Search[T domain.Item](b *Browser, c *collection.Collection[T], query, order string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	if order == "" {
		order = b.SearchOrder()
	} else if err := b.SetSearchOrder(order); err != nil {
		b.logger.Warn("failed to save search order", "service", b.Service(), "error", err)
	}
	b.RecordSearch(query)
	c.Search(query, order)
}

// === Navigation between resources ===

// ListRelated loads videos related to v into c
func (b *Browser) ListRelated(c *collection.Videos, v *domain.Video) {
	if v.Service == youtube.ServiceID {
		c.List("/search", collection.WithFilters(map[string]any{"relatedToVideoId": v.ID}))
		return
	}
	c.List(v.RelatedVideosID)
}

// ListComments loads the comment threads of v into c
func (b *Browser) ListComments(c *collection.Comments, v *domain.Video) {
	if v.Service == youtube.ServiceID {
		c.List("/commentThreads", collection.WithFilters(map[string]any{"videoId": v.ID}))
		return
	}
	c.List(v.CommentsID)
}

// ListPlaylistVideos loads the videos of p into c
func (b *Browser) ListPlaylistVideos(c *collection.Videos, p *domain.Playlist) {
	if p.Service == youtube.ServiceID {
		c.List("/playlistItems", collection.WithFilters(map[string]any{"playlistId": p.ID}))
		return
	}
	c.List(p.VideosID)
}

// ListUploads loads the uploads of u into c. It reports false when the user
// exposes no uploads playlist.
func (b *Browser) ListUploads(c *collection.Videos, u *domain.User) bool {
	uploads := u.RelatedPlaylists["uploads"]
	if uploads == "" {
		return false
	}
	if u.Service == youtube.ServiceID {
		c.List("/playlistItems", collection.WithFilters(map[string]any{"playlistId": uploads}))
	} else {
		c.List(uploads)
	}
	return true
}

// ListSubscriptions loads the signed-in user's subscriptions into c
func (b *Browser) ListSubscriptions(c *collection.Users) {
	c.List(lookup.SubscriptionsResource, collection.WithParams(map[string]any{"mine": true}))
}

// === Subscriptions ===

// SubscriptionID returns the subscription id for channelID, if the signed-in
// user is subscribed.
func (b *Browser) SubscriptionID(ctx context.Context, channelID string) (string, bool, error) {
	if b.subs == nil {
		return "", false, nil
	}
	return b.subs.Lookup(ctx, channelID)
}

// IsSubscribed reports whether the signed-in user follows channelID
func (b *Browser) IsSubscribed(ctx context.Context, channelID string) (bool, error) {
	_, ok, err := b.SubscriptionID(ctx, channelID)
	return ok, err
}

// SubscriptionsChanged drops the subscription index after a subscribe or
// unsubscribe.
func (b *Browser) SubscriptionsChanged() {
	if b.subs != nil {
		b.subs.Invalidate()
	}
}
