// Package app wires the shared ingestion stack used by the API and the worker.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/weatherwise/weatherwise/internal/config"
	"github.com/weatherwise/weatherwise/internal/database"
	"github.com/weatherwise/weatherwise/internal/history"
	"github.com/weatherwise/weatherwise/internal/ingest"
	"github.com/weatherwise/weatherwise/internal/observation"
	"github.com/weatherwise/weatherwise/internal/provider/resilience"
	"github.com/weatherwise/weatherwise/internal/telemetry"
	"github.com/weatherwise/weatherwise/internal/weather"
	"github.com/weatherwise/weatherwise/internal/weather/openweathermap"
)

// App holds the wired services.
type App struct {
	Ingester  *ingest.Orchestrator
	History   *history.Service
	Weather   *weather.Service
	Providers *resilience.Registry

	// Pool is nil when the in-memory store is in use.
	Pool *pgxpool.Pool
}

// NewLogger builds the root logger for a binary.
func NewLogger(cfg *config.Config, service, version string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("env", cfg.App.Environment).
		Logger()
}

// New connects the record store and builds the provider and ingestion stack.
// Close must be called to release the database pool.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Providers: resilience.NewRegistry()}

	repo, err := a.openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("provider metrics: %w", err)
	}
	ingestMetrics, err := telemetry.NewIngestMetrics()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ingest metrics: %w", err)
	}

	httpClient := resilience.NewClient(resilience.ClientConfig{
		Name:       openweathermap.ProviderName,
		Timeout:    cfg.Weather.Timeout,
		MaxRetries: cfg.Weather.MaxRetries,
		Registry:   a.Providers,
		Logger:     log,
	})

	a.Weather = weather.NewService(weather.ServiceConfig{
		Provider: openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     cfg.Weather.APIKey,
			BaseURL:    cfg.Weather.BaseURL,
			HTTPClient: httpClient,
			Logger:     log,
		}),
		Logger:          log,
		Metrics:         providerMetrics,
		CacheTTL:        cfg.Weather.CacheTTL,
		StaleIfErrorTTL: cfg.Weather.StaleIfErrorTTL,
	})

	a.Ingester = ingest.New(ingest.Config{
		Weather:  a.Weather,
		Recorder: observation.NewService(observation.ServiceConfig{Repository: repo, Logger: log}),
		Logger:   log,
		Metrics:  ingestMetrics,
	})

	a.History = history.NewService(history.ServiceConfig{Repository: repo, Logger: log})

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (observation.Repository, error) {
	if cfg.App.StoreDriver == "memory" {
		log.Warn().Msg("using in-memory record store, records are lost on restart")
		return observation.NewInMemoryRepository(), nil
	}

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(cfg.Database); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		log.Info().Msg("database migrations applied")
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	repo, err := observation.NewPostgresRepository(pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create repository: %w", err)
	}
	a.Pool = pool
	return repo, nil
}

// Database returns the readiness pinger, or nil for the in-memory store.
func (a *App) Database() interface{ Ping(context.Context) error } {
	if a.Pool == nil {
		return nil
	}
	return a.Pool
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
