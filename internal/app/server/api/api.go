package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	"pharmsync/internal/app/server/api/http/health"
	"pharmsync/internal/app/server/api/http/middleware"
	"pharmsync/internal/app/server/api/http/middleware/auth"
	mwlogger "pharmsync/internal/app/server/api/http/middleware/logger"
	syncAPI "pharmsync/internal/app/server/api/http/sync"
	"pharmsync/internal/app/server/config"
	"pharmsync/internal/domain/sync"
	"pharmsync/internal/domain/tenant"
	"pharmsync/internal/infrastructure/remote"
	"pharmsync/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *health.Handler
	Sync   *syncAPI.Handler
}

// New builds a *chi.Mux with every operation registered through huma.
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("PharmSync API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"apiKey": {Type: "apiKey", In: "header", Name: "X-Api-Key"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(storage, cfg, log)
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *Handlers {
	pool := storage.Pool()

	tenantRepo := postgres.NewTenantRepository(pool, log)
	tenantService := tenant.NewService(tenantRepo, log)
	authMW := auth.New(tenantService, log)
	loggerMW := mwlogger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := health.NewHandler(log, middlewares.GetAllAndClear())

	syncRepo := postgres.NewSyncRepository(pool, log)
	stores := postgres.NewStores(pool, log)
	fetcher := remote.NewClient(cfg.Sync.RemoteURL, cfg.Sync.RemoteAPIKey, log)
	syncConfig := sync.Config{
		BatchSize:         cfg.Sync.BatchSize,
		RemoteTimeout:     cfg.Sync.RemoteTimeout,
		DefaultResolution: sync.Resolution(cfg.Sync.DefaultResolution),
	}
	syncService := sync.NewService(syncRepo, syncRepo, stores, fetcher, syncConfig, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Sync:   syncHandler,
	}
}
