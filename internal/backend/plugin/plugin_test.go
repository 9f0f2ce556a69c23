package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/registry"
)

// MockCmdRunner implements CmdRunner for testing
type MockCmdRunner struct {
	RunFunc func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

func (m *MockCmdRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, stdin, name, args...)
	}
	return []byte(`{"items": []}`), nil
}

func writeManifest(t *testing.T, root, dir, body string) string {
	t.Helper()
	path := filepath.Join(root, dir, ManifestName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestBackend_ListSendsRequestAndDecodesPage(t *testing.T) {
	var sent protocolRequest
	runner := &MockCmdRunner{RunFunc: func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "vimeo-plugin", name)
		assert.Equal(t, []string{"--json"}, args)
		require.NoError(t, json.Unmarshal(stdin, &sent))
		return []byte(`{"items": [{"id": "v1", "title": "First"}], "next": "p2"}`), nil
	}}
	b := New(&Manifest{ID: "vimeo", Command: "vimeo-plugin", Args: []string{"--json"}}, runner, nil)

	res, err := b.List(context.Background(), domain.ListRequest{
		Kind:       domain.KindVideo,
		ResourceID: "channel/staffpicks",
		Filters:    map[string]any{"videoId": "v0"},
		PageToken:  "p1",
	})
	require.NoError(t, err)

	assert.Equal(t, "list", sent.Op)
	assert.Equal(t, domain.KindVideo, sent.Kind)
	assert.Equal(t, "channel/staffpicks", sent.ResourceID)
	assert.Equal(t, "v0", sent.Filters["videoId"])
	assert.Equal(t, "p1", sent.PageToken)

	assert.Equal(t, "p2", res.Next)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "First", res.Items[0]["title"])
}

func TestBackend_Search(t *testing.T) {
	var sent protocolRequest
	runner := &MockCmdRunner{RunFunc: func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
		require.NoError(t, json.Unmarshal(stdin, &sent))
		return []byte(`{"items": [], "next": ""}`), nil
	}}
	b := New(&Manifest{ID: "p", Command: "p"}, runner, nil)

	res, err := b.Search(context.Background(), domain.SearchRequest{Kind: domain.KindUser, Query: "cats", Order: "date"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, "search", sent.Op)
	assert.Equal(t, "cats", sent.Query)
	assert.Equal(t, "date", sent.Order)
}

func TestBackend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		out    string
		runErr error
		want   error
		msg    string
	}{
		{name: "plugin error", out: `{"error": "rate limited"}`, want: domain.ErrTransport, msg: "rate limited"},
		{name: "bad json", out: `not json`, want: domain.ErrDecode},
		{name: "missing items", out: `{"next": "x"}`, want: domain.ErrDecode},
		{name: "command failed", runErr: errors.New("exit status 2"), want: domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockCmdRunner{RunFunc: func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
				return []byte(tt.out), tt.runErr
			}}
			b := New(&Manifest{ID: "p", Command: "p"}, runner, nil)

			_, err := b.List(context.Background(), domain.ListRequest{Kind: domain.KindVideo})
			assert.ErrorIs(t, err, tt.want)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, err.Error())
			}
		})
	}
}

func TestBackend_UnsupportedKind(t *testing.T) {
	called := false
	runner := &MockCmdRunner{RunFunc: func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
		called = true
		return nil, nil
	}}
	b := New(&Manifest{ID: "p", Command: "p", Kinds: []string{"video"}}, runner, nil)

	_, err := b.List(context.Background(), domain.ListRequest{Kind: domain.KindComment})
	assert.ErrorIs(t, err, domain.ErrUnsupportedKind)
	assert.False(t, called)
}

func TestBackend_RealCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	m := &Manifest{
		ID:      "echo",
		Command: "sh",
		Args:    []string{"-c", `cat >/dev/null; echo '{"items": [{"id": "x"}], "next": ""}'`},
	}
	b := New(m, NewCmdRunner(), nil)

	res, err := b.List(context.Background(), domain.ListRequest{Kind: domain.KindVideo})
	require.NoError(t, err)
	assert.Equal(t, "x", res.Items[0]["id"])

	m.Args = []string{"-c", `echo "no such channel" >&2; exit 3`}
	_, err = b.List(context.Background(), domain.ListRequest{Kind: domain.KindVideo})
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "no such channel")
}

func TestLoadManifest(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, "vimeo", `
id: vimeo
name: Vimeo
command: ./run.sh
args: ["--verbose"]
kinds: [video, user]
search_orders: [relevance, date]
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "vimeo", m.ID)
	assert.Equal(t, filepath.Join(root, "vimeo", "run.sh"), m.Command)
	assert.Equal(t, []string{"--verbose"}, m.Args)

	info := m.Info()
	assert.Equal(t, "Vimeo", info.Name)
	assert.True(t, info.Supports(domain.KindUser))
	assert.False(t, info.Supports(domain.KindPlaylist))
	assert.Equal(t, []string{"relevance", "date"}, info.SearchOrders)
}

func TestLoadManifest_Invalid(t *testing.T) {
	root := t.TempDir()

	_, err := LoadManifest(writeManifest(t, root, "a", "name: no id\ncommand: x\n"))
	assert.ErrorContains(t, err, "id is required")

	_, err = LoadManifest(writeManifest(t, root, "b", "id: b\n"))
	assert.ErrorContains(t, err, "command is required")

	_, err = LoadManifest(writeManifest(t, root, "c", "id: c\ncommand: x\nkinds: [song]\n"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedKind)

	_, err = LoadManifest(writeManifest(t, root, "d", "id: [broken\n"))
	assert.Error(t, err)
}

func TestDiscoverAndRegister(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "zeta", "id: zeta\ncommand: zeta-bin\n")
	writeManifest(t, root, "alpha", "id: alpha\ncommand: alpha-bin\n")
	writeManifest(t, root, "off", "id: off\ncommand: off-bin\ndisabled: true\n")
	writeManifest(t, root, "dup", "id: alpha\ncommand: other\n")
	writeManifest(t, root, "broken", "command: x\n")

	manifests := Discover([]string{root, filepath.Join(root, "missing")}, nil)
	require.Len(t, manifests, 4)
	assert.Equal(t, "alpha", manifests[0].ID)
	assert.Equal(t, "zeta", manifests[3].ID)

	reg := registry.New(registry.Config{}, nil)
	n := Register(reg, manifests, &MockCmdRunner{}, nil)
	assert.Equal(t, 2, n)
	assert.True(t, reg.Enabled("alpha"))
	assert.True(t, reg.Enabled("zeta"))
	_, ok := reg.Info("off")
	assert.False(t, ok)

	info, _ := reg.Info("zeta")
	assert.Equal(t, registry.ProvenancePlugin, info.Provenance)
}
