// Package app is the composition root for embedding applications:
// config, store, mirror, identity, and coordinator wired together with
// an explicit lifecycle instead of process-wide singletons.
package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dnguyen/listsync/internal/auth"
	"github.com/dnguyen/listsync/internal/mirror"
	"github.com/dnguyen/listsync/internal/model"
	"github.com/dnguyen/listsync/internal/store"
	appsync "github.com/dnguyen/listsync/internal/sync"
)

// App bundles the wired subsystems handed to the presentation layer.
type App struct {
	Config   *model.AppConfig
	Store    *store.SQLiteStore
	Mirror   mirror.Mirror
	Identity *auth.Service
	Todos    *appsync.Coordinator
}

// New loads configuration from configPath (the default path when empty)
// and wires all subsystems. The returned App owns the store connection;
// call Close when done.
func New(configPath string) (*App, error) {
	if configPath == "" {
		configPath = model.DefaultConfigPath()
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Mirror.BaseURL == "" {
		log.Printf("mirror base_url not configured; remote writes will fail until it is set")
	}
	m := mirror.NewClient(cfg.Mirror.BaseURL, cfg.Mirror.AuthToken)

	identity := auth.NewService(
		auth.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey),
		m,
		auth.KeyringSessionStore{},
	)

	return &App{
		Config:   cfg,
		Store:    s,
		Mirror:   m,
		Identity: identity,
		Todos:    appsync.New(s, m),
	}, nil
}

// Close cancels active subscriptions and closes the store.
func (a *App) Close() error {
	a.Todos.Close()
	return a.Store.Close()
}
