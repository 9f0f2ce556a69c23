// Package config loads and saves tubular's YAML configuration with viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmcdole/tubular/internal/backend/youtube"
	"github.com/mmcdole/tubular/internal/registry"
)

const configFileName = "config.yaml"

// Config holds all application configuration
type Config struct {
	YouTube YouTubeConfig `mapstructure:"youtube"`
	Plugins PluginsConfig `mapstructure:"plugins"`
	Browse  BrowseConfig  `mapstructure:"browse"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// YouTubeConfig holds the built-in service's credentials
type YouTubeConfig struct {
	APIKey       string `mapstructure:"api_key"`
	AccessToken  string `mapstructure:"access_token"`
	RefreshToken string `mapstructure:"refresh_token"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	UserID       string `mapstructure:"user_id"`
	SafeSearch   bool   `mapstructure:"safe_search"`
}

// PluginsConfig controls plugin discovery
type PluginsConfig struct {
	Dirs     []string `mapstructure:"dirs"`
	Disabled []string `mapstructure:"disabled"` // service ids, plugin or builtin
}

// BrowseConfig holds browsing defaults
type BrowseConfig struct {
	Service     string        `mapstructure:"service"` // last active service
	PageSize    int           `mapstructure:"page_size"`
	SearchOrder string        `mapstructure:"search_order"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds local storage settings
type CacheConfig struct {
	Dir            string `mapstructure:"dir"` // empty disables persistence
	MaxLookupPages int    `mapstructure:"max_lookup_pages"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Plugins: PluginsConfig{
			Dirs:     []string{filepath.Join(DefaultDir(), "plugins")},
			Disabled: []string{},
		},
		Browse: BrowseConfig{
			Service:     youtube.ServiceID,
			PageSize:    20,
			SearchOrder: "relevance",
			Timeout:     60 * time.Second,
		},
		Cache: CacheConfig{
			Dir:            defaultDataPath(),
			MaxLookupPages: 200,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "tubular.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "tubular")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "tubular")
	}
}

// DefaultDir returns the default config directory for the current OS
func DefaultDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "tubular")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "tubular")
	}
}

// newViper creates a viper instance that knows every key, so environment
// variables like TUBULAR_YOUTUBE_API_KEY override the file.
func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if dir == DefaultDir() {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TUBULAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setAll(DefaultConfig(), v.SetDefault)
	return v
}

// LoadConfig loads configuration from dir and the environment. An empty dir
// means DefaultDir. A missing file is not an error.
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to dir/config.yaml
func SaveConfig(dir string, cfg *Config) error {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setAll(cfg, v.Set)

	configFile := filepath.Join(dir, configFileName)
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveCredentials replaces the YouTube credentials in the saved config,
// keeping every other setting.
func SaveCredentials(dir string, creds YouTubeConfig) error {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return err
	}
	creds.SafeSearch = cfg.YouTube.SafeSearch
	cfg.YouTube = creds
	return SaveConfig(dir, cfg)
}

// ClearCredentials removes the signed-in user's tokens. The API key is kept
// so anonymous browsing keeps working.
func ClearCredentials(dir string) error {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return err
	}
	cfg.YouTube = YouTubeConfig{
		APIKey:     cfg.YouTube.APIKey,
		SafeSearch: cfg.YouTube.SafeSearch,
	}
	return SaveConfig(dir, cfg)
}

// IsSignedIn returns true if a YouTube access token is configured
func (c *Config) IsSignedIn() bool {
	return c.YouTube.AccessToken != ""
}

// IsConfigured returns true if the built-in service has any credentials
func (c *Config) IsConfigured() bool {
	return c.YouTube.APIKey != "" || c.YouTube.AccessToken != ""
}

// Registry converts the configuration into the value threaded through the
// service registry.
func (c *Config) Registry() registry.Config {
	return registry.Config{
		PageSize:   c.Browse.PageSize,
		SafeSearch: c.YouTube.SafeSearch,
		Timeout:    c.Browse.Timeout,
		Disabled:   c.Plugins.Disabled,
		Credentials: map[string]registry.Credentials{
			youtube.ServiceID: {
				APIKey:       c.YouTube.APIKey,
				AccessToken:  c.YouTube.AccessToken,
				RefreshToken: c.YouTube.RefreshToken,
				ClientID:     c.YouTube.ClientID,
				ClientSecret: c.YouTube.ClientSecret,
				UserID:       c.YouTube.UserID,
			},
		},
	}
}

// setAll sets fields individually to ensure correct key names (snake_case)
func setAll(cfg *Config, set func(key string, value any)) {
	set("youtube.api_key", cfg.YouTube.APIKey)
	set("youtube.access_token", cfg.YouTube.AccessToken)
	set("youtube.refresh_token", cfg.YouTube.RefreshToken)
	set("youtube.client_id", cfg.YouTube.ClientID)
	set("youtube.client_secret", cfg.YouTube.ClientSecret)
	set("youtube.user_id", cfg.YouTube.UserID)
	set("youtube.safe_search", cfg.YouTube.SafeSearch)

	set("plugins.dirs", cfg.Plugins.Dirs)
	set("plugins.disabled", cfg.Plugins.Disabled)

	set("browse.service", cfg.Browse.Service)
	set("browse.page_size", cfg.Browse.PageSize)
	set("browse.search_order", cfg.Browse.SearchOrder)
	set("browse.timeout", cfg.Browse.Timeout.String())

	set("cache.dir", cfg.Cache.Dir)
	set("cache.max_lookup_pages", cfg.Cache.MaxLookupPages)

	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
}
