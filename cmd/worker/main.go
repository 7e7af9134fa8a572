// Package main provides the entrypoint for the WeatherWise ingestion worker.
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

	"github.com/weatherwise/weatherwise/internal/api/response"
	"github.com/weatherwise/weatherwise/internal/app"
	"github.com/weatherwise/weatherwise/internal/config"
	"github.com/weatherwise/weatherwise/internal/telemetry"
	"github.com/weatherwise/weatherwise/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "weatherwise-worker"

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateWorker()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg, serviceName, Version)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("build_time", BuildTime).
		Str("subscription", cfg.Worker.Subscription).
		Msg("starting WeatherWise worker")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:              cfg.Worker.ProjectID,
		SubscriptionName:       cfg.Worker.Subscription,
		MaxOutstandingMessages: cfg.Worker.MaxOutstandingMessages,
		NumGoroutines:          cfg.Worker.NumGoroutines,
		Processor: worker.NewProcessor(worker.ProcessorConfig{
			Ingester: a.Ingester,
			Logger:   log,
			Timeout:  cfg.Worker.ProcessTimeout,
		}),
		Logger: log,
	})
	if err != nil {
		return err
	}
	defer handler.Close()

	// Cloud Run needs a listening port even for subscribers.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "OK", "version": Version})
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	receiveErr := handler.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server shutdown failed")
	}

	if receiveErr != nil && !errors.Is(receiveErr, context.Canceled) {
		return fmt.Errorf("receive: %w", receiveErr)
	}
	log.Info().Msg("worker stopped")
	return nil
}
