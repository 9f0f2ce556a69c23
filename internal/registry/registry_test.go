package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/request"
)

// tagBackend answers every call with a single item naming itself
type tagBackend struct {
	tag string
}

func (b *tagBackend) List(ctx context.Context, req domain.ListRequest) (*domain.Result, error) {
	return &domain.Result{Items: []map[string]any{{"id": b.tag}}}, nil
}

func (b *tagBackend) Search(ctx context.Context, req domain.SearchRequest) (*domain.Result, error) {
	return b.List(ctx, domain.ListRequest{})
}

func keyedFactory(cfg Config, logger *slog.Logger) (domain.Backend, error) {
	creds := cfg.CredentialsFor("tube")
	if creds.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	return &tagBackend{tag: creds.APIKey}, nil
}

func runList(t *testing.T, r domain.Request) *domain.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := request.Await(ctx, r, func() { r.List(domain.ListRequest{}) })
	require.NoError(t, err)
	require.Equal(t, domain.StatusReady, status)
	return r.Result()
}

func TestResolve_UnknownService(t *testing.T) {
	reg := New(Config{}, nil)

	_, err := reg.Resolve("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownService)
	assert.Nil(t, reg.NewRequest("nope"))
}

func TestResolve_BuiltinAndPlugin(t *testing.T) {
	cfg := Config{Credentials: map[string]Credentials{"tube": {APIKey: "k1"}}}
	reg := New(cfg, nil)
	require.NoError(t, reg.RegisterBuiltin(ServiceInfo{ID: "tube", Name: "Tube"}, keyedFactory))
	require.NoError(t, reg.RegisterPlugin(ServiceInfo{ID: "vimeo", Name: "Vimeo"}, &tagBackend{tag: "plugin"}))

	r := reg.NewRequest("tube")
	require.NotNil(t, r)
	assert.Equal(t, "tube", r.Service())
	assert.Equal(t, "k1", runList(t, r).Items[0]["id"])

	p := reg.NewRequest("vimeo")
	require.NotNil(t, p)
	assert.Equal(t, "plugin", runList(t, p).Items[0]["id"])
}

func TestResolve_EachCallCreatesNewRequest(t *testing.T) {
	reg := New(Config{}, nil)
	require.NoError(t, reg.RegisterPlugin(ServiceInfo{ID: "p"}, &tagBackend{}))

	a := reg.NewRequest("p")
	b := reg.NewRequest("p")
	assert.NotSame(t, a, b)
}

func TestRegister_Duplicate(t *testing.T) {
	reg := New(Config{}, nil)
	require.NoError(t, reg.RegisterPlugin(ServiceInfo{ID: "p"}, &tagBackend{}))

	err := reg.RegisterPlugin(ServiceInfo{ID: "p"}, &tagBackend{})
	assert.ErrorIs(t, err, domain.ErrDuplicateService)
}

func TestResolve_Disabled(t *testing.T) {
	reg := New(Config{Disabled: []string{"p"}}, nil)
	require.NoError(t, reg.RegisterPlugin(ServiceInfo{ID: "p"}, &tagBackend{}))

	_, err := reg.Resolve("p")
	assert.ErrorIs(t, err, domain.ErrServiceDisabled)
	assert.False(t, reg.Enabled("p"))
}

func TestResolve_BuiltinWithoutCredentialsIsDisabled(t *testing.T) {
	reg := New(Config{}, nil)
	require.NoError(t, reg.RegisterBuiltin(ServiceInfo{ID: "tube"}, keyedFactory))

	_, err := reg.Resolve("tube")
	assert.ErrorIs(t, err, domain.ErrServiceDisabled)
}

func TestReset_RebuildsBuiltinsForExistingRequests(t *testing.T) {
	reg := New(Config{Credentials: map[string]Credentials{"tube": {APIKey: "old"}}}, nil)
	require.NoError(t, reg.RegisterBuiltin(ServiceInfo{ID: "tube"}, keyedFactory))

	r := reg.NewRequest("tube")
	require.NotNil(t, r)
	assert.Equal(t, "old", runList(t, r).Items[0]["id"])

	reg.Reset(Config{Credentials: map[string]Credentials{"tube": {APIKey: "new"}}})
	assert.Equal(t, "new", runList(t, r).Items[0]["id"])
}

func TestServices_SortedBuiltinsFirst(t *testing.T) {
	reg := New(Config{Credentials: map[string]Credentials{"tube": {APIKey: "k"}}}, nil)
	require.NoError(t, reg.RegisterPlugin(ServiceInfo{ID: "alpha"}, &tagBackend{}))
	require.NoError(t, reg.RegisterBuiltin(ServiceInfo{ID: "tube"}, keyedFactory))
	require.NoError(t, reg.RegisterPlugin(ServiceInfo{ID: "beta", Kinds: []domain.ResourceKind{domain.KindVideo}}, &tagBackend{}))

	services := reg.Services()
	require.Len(t, services, 3)
	assert.Equal(t, "tube", services[0].ID)
	assert.Equal(t, ProvenanceBuiltin, services[0].Provenance)
	assert.Equal(t, "alpha", services[1].ID)
	assert.Equal(t, "beta", services[2].ID)
	assert.True(t, services[2].Supports(domain.KindVideo))
	assert.False(t, services[2].Supports(domain.KindUser))
	assert.True(t, services[1].Supports(domain.KindUser))
}

func TestResolve_ConcurrentReads(t *testing.T) {
	reg := New(Config{}, nil)
	require.NoError(t, reg.RegisterPlugin(ServiceInfo{ID: "p"}, &tagBackend{}))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, reg.NewRequest("p"))
			_ = reg.Services()
		}()
	}
	wg.Wait()
}
