// Package app wires configuration, storage, settings and the model provider
// into the services used by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/chat"
	"github.com/elee1766/gem/src/config"
	"github.com/elee1766/gem/src/metrics"
	"github.com/elee1766/gem/src/settings"
	"github.com/elee1766/gem/src/storage"
	"github.com/elee1766/gem/src/suggest"
	"github.com/spf13/afero"
)

// ErrNoAPIKey is returned when a model is needed but no key is configured.
var ErrNoAPIKey = errors.New("no API key configured")

// App represents the main application with all services
type App struct {
	Config   *config.Config
	Store    *storage.DB
	Settings *settings.Service
	Metrics  *metrics.Recorder
	Logger   *slog.Logger

	// mu guards the lazily built model and services
	mu      sync.Mutex
	model   aisdk.ChatModel
	chat    *chat.Service
	suggest *suggest.Service

	// background title and suggestion runs
	wg sync.WaitGroup
}

// AppConfig holds configuration for creating a new App instance
type AppConfig struct {
	Config *config.Config
	Logger *slog.Logger
	// Fs holds the key file; defaults to the OS filesystem.
	Fs afero.Fs
	// Model replaces the configured provider.
	Model aisdk.ChatModel
	// KeyTester replaces the provider's key check.
	KeyTester aisdk.KeyTester
}

// New opens storage and settings. The model is built on first use so that
// setup commands work before a key exists.
func New(ctx context.Context, cfg AppConfig) (*App, error) {
	if cfg.Config == nil {
		cfg.Config = config.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	paths := cfg.Config.StoragePaths()
	if err := fs.MkdirAll(filepath.Dir(paths.DatabasePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	store, err := storage.Open(paths.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.SeedDefaultPrompts(ctx, store.DB()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to seed prompts: %w", err)
	}

	key, err := settings.LoadOrCreateKey(fs, paths.KeyPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load key file: %w", err)
	}
	cipher, err := settings.NewCipher(key)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &App{
		Config:  cfg.Config,
		Store:   store,
		Metrics: metrics.New(metrics.DefaultConfig()),
		Logger:  logger,
		model:   cfg.Model,
	}

	tester := cfg.KeyTester
	if tester == nil {
		tester = providerKeyTester{app: a}
	}
	a.Settings = settings.New(settings.Config{
		DB:      store.DB(),
		Cipher:  cipher,
		Tester:  tester,
		Timeout: apperr.DefaultTimeout,
		Logger:  logger,
	})

	logger.Debug("app initialized", "database", paths.DatabasePath, "provider", cfg.Config.API.Provider)
	return a, nil
}

// Chat returns the chat service, building the model on first use.
func (a *App) Chat(ctx context.Context) (*chat.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureServices(ctx); err != nil {
		return nil, err
	}
	return a.chat, nil
}

// Suggest returns the suggestion service, building the model on first use.
func (a *App) Suggest(ctx context.Context) (*suggest.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureServices(ctx); err != nil {
		return nil, err
	}
	return a.suggest, nil
}

// ResetModel drops the model so the next use picks up changed settings.
func (a *App) ResetModel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.model, a.chat, a.suggest = nil, nil, nil
}

func (a *App) ensureServices(ctx context.Context) error {
	if a.chat != nil {
		return nil
	}
	if a.model == nil {
		model, err := a.newChatModel(ctx)
		if err != nil {
			return err
		}
		a.model = model
	}

	chatSvc, err := chat.NewService(chat.ServiceConfig{
		Database: a.Store.DB(),
		Model:    a.model,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})
	if err != nil {
		return err
	}
	suggestSvc, err := suggest.NewService(suggest.Config{
		Database: a.Store.DB(),
		Model:    a.model,
		Metrics:  a.Metrics,
		Timeout:  apperr.DefaultTimeout,
		Logger:   a.Logger,
	})
	if err != nil {
		return err
	}
	a.chat, a.suggest = chatSvc, suggestSvc
	return nil
}

// Wait blocks until background title and suggestion runs finish.
func (a *App) Wait() {
	a.wg.Wait()
}

// Close waits for background work, writes metrics and closes storage.
func (a *App) Close() error {
	a.wg.Wait()

	var errs []error
	if path := a.Config.Observability.Metrics.Textfile; path != "" {
		if err := a.Metrics.WriteToTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
