package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherwise/weatherwise/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "weatherwise-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)

	// Disabled telemetry installs no SDK providers.
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestTracer_ReturnsGlobalTracer(t *testing.T) {
	assert.NotNil(t, telemetry.Tracer("test-tracer"))
}

func TestMeter_ReturnsGlobalMeter(t *testing.T) {
	assert.NotNil(t, telemetry.Meter("test-meter"))
}

func TestProviderMetrics_Record(t *testing.T) {
	m, err := telemetry.NewProviderMetrics()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Recording against the noop global meter must not panic, even with
	// a cancelled context.
	assert.NotPanics(t, func() {
		m.RecordRequest(ctx, "openweathermap", "current_weather", 120*time.Millisecond, nil)
		m.RecordRequest(ctx, "openweathermap", "air_quality", time.Second, errors.New("timeout"))
		m.RecordCacheHit("openweathermap", "current_weather")
		m.RecordCacheMiss("openweathermap", "air_quality")
	})
}

func TestIngestMetrics_Record(t *testing.T) {
	m, err := telemetry.NewIngestMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RecordIngest(context.Background(), "ok", 2)
		m.RecordIngest(context.Background(), "provider_error", 0)
		m.RecordAQIDegraded(context.Background())
	})
}
