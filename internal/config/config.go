// Package config loads process configuration from the environment.
//
// Values are resolved in priority order: OS environment, then a .env file in
// the working directory, then the defaults declared in the struct tags.
package config

import (
	"time"

	"github.com/weatherwise/weatherwise/internal/database"
	"github.com/weatherwise/weatherwise/internal/telemetry"
)

// Config is the top-level configuration shared by all binaries.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  database.Config
	Weather   WeatherConfig
	Telemetry TelemetryConfig
	Worker    WorkerConfig
}

// AppConfig holds process metadata.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development" validate:"oneof=development test staging production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`

	// StoreDriver selects the record store. "memory" is for local runs only.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres" validate:"oneof=postgres memory"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int           `envconfig:"APP_PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout       time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	IngestTimeout      time.Duration `envconfig:"INGEST_TIMEOUT" default:"25s" validate:"gt=0,ltfield=WriteTimeout"`
	RequireTLS         bool          `envconfig:"REQUIRE_TLS" default:"false"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60" validate:"min=1"`
}

// WeatherConfig holds weather provider settings.
type WeatherConfig struct {
	APIKey          string        `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	BaseURL         string        `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"url"`
	CacheTTL        time.Duration `envconfig:"WEATHER_CACHE_TTL" default:"5m"`
	StaleIfErrorTTL time.Duration `envconfig:"WEATHER_STALE_IF_ERROR_TTL" default:"30m"`
	Timeout         time.Duration `envconfig:"WEATHER_PROVIDER_TIMEOUT" default:"10s"`
	MaxRetries      uint64        `envconfig:"WEATHER_PROVIDER_MAX_RETRIES" default:"3" validate:"max=10"`
}

// TelemetryConfig holds OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled      bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
}

// TelemetryFor builds the telemetry.Config for a service.
func (c *Config) TelemetryFor(serviceName, version string) telemetry.Config {
	return telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    c.App.Environment,
		OTLPEndpoint:   c.Telemetry.OTLPEndpoint,
		Enabled:        c.Telemetry.Enabled,
	}
}

// WorkerConfig holds Pub/Sub consumer settings. Only the worker requires them.
type WorkerConfig struct {
	ProjectID              string        `envconfig:"PUBSUB_PROJECT_ID"`
	Subscription           string        `envconfig:"PUBSUB_SUBSCRIPTION" default:"weatherwise-ingest"`
	MaxOutstandingMessages int           `envconfig:"PUBSUB_MAX_OUTSTANDING" default:"10" validate:"min=1"`
	NumGoroutines          int           `envconfig:"PUBSUB_NUM_GOROUTINES" default:"2" validate:"min=1"`
	ProcessTimeout         time.Duration `envconfig:"WORKER_PROCESS_TIMEOUT" default:"30s"`
}
