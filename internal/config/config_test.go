package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tubular/internal/backend/youtube"
)

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Browse, cfg.Browse)
	assert.Equal(t, def.Cache, cfg.Cache)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.False(t, cfg.IsConfigured())
	assert.False(t, cfg.IsSignedIn())
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
youtube:
  api_key: file-key
  safe_search: true
plugins:
  dirs: [/opt/tubular/plugins]
  disabled: [vimeo]
browse:
  page_size: 35
  search_order: date
  timeout: 15s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.YouTube.APIKey)
	assert.True(t, cfg.YouTube.SafeSearch)
	assert.Equal(t, []string{"/opt/tubular/plugins"}, cfg.Plugins.Dirs)
	assert.Equal(t, 35, cfg.Browse.PageSize)
	assert.Equal(t, "date", cfg.Browse.SearchOrder)
	assert.Equal(t, 15*time.Second, cfg.Browse.Timeout)
	// Unset keys keep defaults
	assert.Equal(t, youtube.ServiceID, cfg.Browse.Service)
	assert.True(t, cfg.IsConfigured())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("youtube:\n  api_key: file-key\n"), 0644))
	t.Setenv("TUBULAR_YOUTUBE_API_KEY", "env-key")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.YouTube.APIKey)
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("youtube: [unclosed\n"), 0644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg := DefaultConfig()
	cfg.YouTube.APIKey = "k"
	cfg.Browse.Service = "vimeo"
	cfg.Browse.Timeout = 5 * time.Second
	cfg.Plugins.Disabled = []string{"dailymotion"}
	cfg.Cache.MaxLookupPages = 10

	require.NoError(t, SaveConfig(dir, cfg))
	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestCredentials(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.YouTube.APIKey = "key"
	cfg.YouTube.SafeSearch = true
	cfg.Browse.PageSize = 42
	require.NoError(t, SaveConfig(dir, cfg))

	require.NoError(t, SaveCredentials(dir, YouTubeConfig{APIKey: "key", AccessToken: "tok", RefreshToken: "ref"}))
	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, loaded.IsSignedIn())
	assert.Equal(t, "ref", loaded.YouTube.RefreshToken)
	assert.True(t, loaded.YouTube.SafeSearch)
	assert.Equal(t, 42, loaded.Browse.PageSize)

	require.NoError(t, ClearCredentials(dir))
	loaded, err = LoadConfig(dir)
	require.NoError(t, err)
	assert.False(t, loaded.IsSignedIn())
	assert.Empty(t, loaded.YouTube.RefreshToken)
	assert.Equal(t, "key", loaded.YouTube.APIKey)
}

func TestConfig_Registry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.YouTube.APIKey = "k"
	cfg.YouTube.AccessToken = "t"
	cfg.Plugins.Disabled = []string{"p"}

	rc := cfg.Registry()
	assert.Equal(t, 20, rc.PageSize)
	assert.Equal(t, 60*time.Second, rc.Timeout)
	assert.Equal(t, []string{"p"}, rc.Disabled)
	creds := rc.CredentialsFor(youtube.ServiceID)
	assert.Equal(t, "k", creds.APIKey)
	assert.Equal(t, "t", creds.AccessToken)
}
