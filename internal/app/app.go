// Package app wires the registry, backends, store and caches into the
// objects the CLI and TUI drive.
package app

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/tubular/internal/backend/plugin"
	"github.com/mmcdole/tubular/internal/backend/youtube"
	"github.com/mmcdole/tubular/internal/config"
	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/lookup"
	"github.com/mmcdole/tubular/internal/registry"
	"github.com/mmcdole/tubular/internal/store"
)

// App owns the long-lived components
type App struct {
	Config        *config.Config
	Registry      *registry.Registry
	Store         domain.Store
	Subscriptions *lookup.Cache
	Browser       *Browser
	Session       *Session

	logger *slog.Logger
}

// Options lets callers swap pieces out, mostly for tests
type Options struct {
	ConfigDir string
	Runner    plugin.CmdRunner
	Store     domain.Store // opened from cfg.Cache.Dir when nil
}

// New builds the application from cfg: registers the built-in YouTube
// service, discovers plugins and opens the store.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := registry.New(cfg.Registry(), logger)
	if err := reg.RegisterBuiltin(youtube.Info(), youtube.Factory); err != nil {
		return nil, err
	}

	manifests := plugin.Discover(cfg.Plugins.Dirs, logger)
	n := plugin.Register(reg, manifests, opts.Runner, logger)
	logger.Info("plugins loaded", "found", len(manifests), "registered", n)

	st := opts.Store
	if st == nil {
		opened, err := store.Open(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		st = opened
	}

	subs := lookup.NewSubscriptions(reg, youtube.ServiceID, logger, lookup.WithMaxPages(cfg.Cache.MaxLookupPages))

	service := cfg.Browse.Service
	if _, ok := reg.Info(service); !ok {
		logger.Warn("configured service not found, using default", "service", service)
		service = youtube.ServiceID
	}

	a := &App{
		Config:        cfg,
		Registry:      reg,
		Store:         st,
		Subscriptions: subs,
		logger:        logger,
	}
	a.Browser = NewBrowser(reg, st, subs, BrowserOptions{
		Service:      service,
		DefaultOrder: cfg.Browse.SearchOrder,
		Persist: func(id string) error {
			cfg.Browse.Service = id
			return config.SaveConfig(opts.ConfigDir, cfg)
		},
	}, logger)
	a.Session = NewSession(opts.ConfigDir, reg, subs, st, logger)
	return a, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
