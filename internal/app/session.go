package app

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/tubular/internal/config"
	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/lookup"
	"github.com/mmcdole/tubular/internal/registry"
)

// Session manages sign-in state. Every change rebuilds the built-in
// backends and drops the subscription index.
type Session struct {
	cfgDir string
	reg    *registry.Registry
	subs   *lookup.Cache
	store  domain.Store
	logger *slog.Logger
}

func NewSession(cfgDir string, reg *registry.Registry, subs *lookup.Cache, store domain.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{cfgDir: cfgDir, reg: reg, subs: subs, store: store, logger: logger}
}

// SignIn saves creds and applies them
func (s *Session) SignIn(creds config.YouTubeConfig) error {
	if creds.APIKey == "" && creds.AccessToken == "" {
		return fmt.Errorf("%w: api key or access token is required", domain.ErrAuthFailed)
	}
	if err := config.SaveCredentials(s.cfgDir, creds); err != nil {
		return err
	}
	s.logger.Info("signed in", "user", creds.UserID)
	return s.Reload()
}

// SignOut clears the saved tokens and local data
func (s *Session) SignOut() error {
	if err := config.ClearCredentials(s.cfgDir); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.InvalidateAll(); err != nil {
			return fmt.Errorf("failed to clear local data: %w", err)
		}
	}
	s.logger.Info("signed out")
	return s.Reload()
}

// Reload re-reads the config file and resets the registry with it
func (s *Session) Reload() error {
	cfg, err := config.LoadConfig(s.cfgDir)
	if err != nil {
		return err
	}
	s.reg.Reset(cfg.Registry())
	if s.subs != nil {
		s.subs.Invalidate()
	}
	return nil
}
