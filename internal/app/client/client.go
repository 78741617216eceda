package client

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/exp/slog"

	"pharmsync/internal/app/client/config"
)

// App ties the local SQLite cache and the server API together for the CLI.
type App struct {
	config     *config.Config
	log        *slog.Logger
	httpClient *httpClient
	storage    *SQLiteStorage
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	httpCl, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}

	storage, err := NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("init local storage: %w", err)
	}

	app := &App{
		config:     cfg,
		log:        log,
		httpClient: httpCl,
		storage:    storage,
	}

	// An explicitly configured key wins over the stored one.
	if cfg.APIKey == "" {
		if key, err := app.loadAPIKey(); err == nil && key != "" {
			httpCl.SetAPIKey(key)
		}
	}

	return app, nil
}

func (a *App) Close() error {
	return a.storage.Close()
}

func (a *App) CheckConnection(ctx context.Context) error {
	return a.httpClient.HealthCheck(ctx)
}

// SaveAPIKey persists the key so later invocations authenticate silently.
func (a *App) SaveAPIKey(key string) error {
	if err := os.WriteFile(a.config.KeyPath, []byte(key), 0600); err != nil {
		return fmt.Errorf("write api key: %w", err)
	}
	a.httpClient.SetAPIKey(key)
	return nil
}

func (a *App) loadAPIKey() (string, error) {
	data, err := os.ReadFile(a.config.KeyPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *App) HasAPIKey() bool {
	return a.httpClient.apiKey != ""
}
