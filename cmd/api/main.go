// Package main provides the entrypoint for the WeatherWise API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherwise/weatherwise/internal/api"
	"github.com/weatherwise/weatherwise/internal/api/middleware"
	"github.com/weatherwise/weatherwise/internal/app"
	"github.com/weatherwise/weatherwise/internal/config"
	"github.com/weatherwise/weatherwise/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "weatherwise-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg, serviceName, Version)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("build_time", BuildTime).
		Str("store", cfg.App.StoreDriver).
		Msg("starting WeatherWise API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, cfg.TelemetryFor(serviceName, Version))
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("initialize http metrics: %w", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		Tracer:             tp.Tracer,
		Metrics:            metrics,
		Ingester:           a.Ingester,
		History:            a.History,
		Database:           a.Database(),
		Providers:          a.Providers,
		RequireTLS:         cfg.Server.RequireTLS,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		IngestTimeout:      cfg.Server.IngestTimeout,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
