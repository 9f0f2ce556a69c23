package lookup

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/request"
)

// pagedSource serves pages of key/id pairs and counts fetches
type pagedSource struct {
	mu     sync.Mutex
	pages  []map[string]string
	tokens []string
	err    error
}

func (s *pagedSource) fetch(ctx context.Context, token string) (map[string]string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return nil, "", s.err
	}
	i := 0
	if token != "" {
		i, _ = strconv.Atoi(token)
	}
	next := ""
	if i+1 < len(s.pages) {
		next = strconv.Itoa(i + 1)
	}
	return s.pages[i], next, nil
}

func (s *pagedSource) fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func threePages() *pagedSource {
	return &pagedSource{pages: []map[string]string{
		{"a": "1", "b": "2"},
		{"c": "3"},
		{"d": "4", "e": "5"},
	}}
}

func TestLookup_FetchesUntilKeyFound(t *testing.T) {
	for page, key := range []string{"a", "c", "e"} {
		src := threePages()
		c := New(src.fetch)

		id, found, err := c.Lookup(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.NotEmpty(t, id)
		assert.Equal(t, page+1, src.fetches(), "key %q", key)

		_, found, err = c.Lookup(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, page+1, src.fetches(), "repeat lookup must not fetch")
	}
}

func TestLookup_TwoPagesKeyOnSecond(t *testing.T) {
	src := &pagedSource{pages: []map[string]string{
		{"w": "sub-w"},
		{"x": "sub-x"},
	}}
	c := New(src.fetch)

	id, found, err := c.Lookup(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sub-x", id)
	assert.Equal(t, []string{"", "1"}, src.tokens)
	assert.Equal(t, Stats{Entries: 2, Pages: 2, Loaded: true}, c.Stats())
}

func TestLookup_MissAfterLoadedDoesNotFetch(t *testing.T) {
	src := threePages()
	c := New(src.fetch)

	_, found, err := c.Lookup(context.Background(), "zz")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 3, src.fetches())
	assert.True(t, c.Stats().Loaded)

	_, found, err = c.Lookup(context.Background(), "yy")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 3, src.fetches())
}

func TestLookup_InvalidateRefetchesFromFirstPage(t *testing.T) {
	src := threePages()
	c := New(src.fetch)

	_, _, err := c.Lookup(context.Background(), "d")
	require.NoError(t, err)

	c.Invalidate()
	assert.Equal(t, Stats{}, c.Stats())

	_, found, err := c.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "", src.tokens[len(src.tokens)-1])
	assert.Equal(t, 4, src.fetches())
}

func TestLookup_FetchErrorKeepsMergedPages(t *testing.T) {
	src := threePages()
	c := New(src.fetch)

	_, _, err := c.Lookup(context.Background(), "c")
	require.NoError(t, err)

	src.err = errors.New("network down")
	_, found, err := c.Lookup(context.Background(), "e")
	assert.Error(t, err)
	assert.False(t, found)
	assert.Equal(t, 3, c.Stats().Entries)

	src.err = nil
	id, found, err := c.Lookup(context.Background(), "e")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "5", id)
}

func TestLookup_PageLimit(t *testing.T) {
	src := threePages()
	c := New(src.fetch, WithMaxPages(2))

	_, found, err := c.Lookup(context.Background(), "e")
	assert.ErrorIs(t, err, ErrPageLimit)
	assert.False(t, found)
	assert.Equal(t, 2, src.fetches())
}

func TestLookup_ContextCanceled(t *testing.T) {
	src := threePages()
	c := New(src.fetch)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Lookup(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.fetches())
}

func TestLookupAsync(t *testing.T) {
	c := New(threePages().fetch)

	res := <-c.LookupAsync(context.Background(), "d")
	require.NoError(t, res.Err)
	assert.True(t, res.Found)
	assert.Equal(t, "4", res.ID)
}

// subscriptionBackend pages subscription records two at a time
type subscriptionBackend struct {
	mu    sync.Mutex
	calls []domain.ListRequest
}

func (b *subscriptionBackend) List(ctx context.Context, req domain.ListRequest) (*domain.Result, error) {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	b.mu.Unlock()
	if req.PageToken == "" {
		return &domain.Result{
			Items: []map[string]any{
				{"id": "UC1", "subscriptionId": "s1", "channelId": "UC1"},
				{"id": "UC2", "subscriptionId": "s2", "channelId": "UC2"},
			},
			Next: "P2",
		}, nil
	}
	return &domain.Result{Items: []map[string]any{
		{"id": "UC3", "subscriptionId": "s3", "channelId": "UC3"},
		{"id": "UC4", "channelId": "UC4"},
	}}, nil
}

func (b *subscriptionBackend) Search(ctx context.Context, req domain.SearchRequest) (*domain.Result, error) {
	return nil, errors.New("not supported")
}

type resolverFunc func(service string) domain.Request

func (f resolverFunc) NewRequest(service string) domain.Request { return f(service) }

func TestNewSubscriptions(t *testing.T) {
	backend := &subscriptionBackend{}
	resolver := resolverFunc(func(service string) domain.Request {
		if service != "youtube" {
			return nil
		}
		return request.New(service, backend)
	})
	c := NewSubscriptions(resolver, "youtube", nil)

	id, found, err := c.Lookup(context.Background(), "UC3")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "s3", id)

	require.Len(t, backend.calls, 2)
	first := backend.calls[0]
	assert.Equal(t, SubscriptionsResource, first.ResourceID)
	assert.Equal(t, true, first.Params["mine"])
	assert.Equal(t, "P2", backend.calls[1].PageToken)

	_, found, err = c.Lookup(context.Background(), "UC4")
	require.NoError(t, err)
	assert.False(t, found, "records without a subscription id are skipped")

	missing := NewSubscriptions(resolver, "vimeo", nil)
	_, _, err = missing.Lookup(context.Background(), "UC1")
	assert.ErrorIs(t, err, domain.ErrUnknownService)
}
