package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/weatherwise/weatherwise/internal/telemetry"

// ProviderMetrics holds metrics for external provider calls.
type ProviderMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// NewProviderMetrics creates metrics for monitoring external provider calls.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"provider.cache.hit",
		metric.WithDescription("Number of provider cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"provider.cache.miss",
		metric.WithDescription("Number of provider cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}, nil
}

// RecordRequest records a provider request.
func (m *ProviderMetrics) RecordRequest(ctx context.Context, provider, operation string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	}

	// Detach from request cancellation so metrics are still recorded.
	ctx = context.WithoutCancel(ctx)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit for a provider.
func (m *ProviderMetrics) RecordCacheHit(provider, operation string) {
	m.cacheHits.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	))
}

// RecordCacheMiss records a cache miss for a provider.
func (m *ProviderMetrics) RecordCacheMiss(provider, operation string) {
	m.cacheMisses.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	))
}

// IngestMetrics holds metrics for observation ingestion.
type IngestMetrics struct {
	ingestTotal      metric.Int64Counter
	aqiDegradedTotal metric.Int64Counter
	riskDetails      metric.Int64Histogram
}

// NewIngestMetrics creates metrics for the ingestion pipeline.
func NewIngestMetrics() (*IngestMetrics, error) {
	meter := otel.Meter(meterName)

	ingestTotal, err := meter.Int64Counter(
		"ingest.observation.total",
		metric.WithDescription("Number of ingestion attempts by outcome"),
		metric.WithUnit("{observation}"),
	)
	if err != nil {
		return nil, err
	}

	aqiDegradedTotal, err := meter.Int64Counter(
		"ingest.aqi.degraded",
		metric.WithDescription("Number of ingestions that continued without air quality data"),
		metric.WithUnit("{observation}"),
	)
	if err != nil {
		return nil, err
	}

	riskDetails, err := meter.Int64Histogram(
		"ingest.risk.details",
		metric.WithDescription("Number of risk factors raised per observation"),
		metric.WithUnit("{risk}"),
	)
	if err != nil {
		return nil, err
	}

	return &IngestMetrics{
		ingestTotal:      ingestTotal,
		aqiDegradedTotal: aqiDegradedTotal,
		riskDetails:      riskDetails,
	}, nil
}

// RecordIngest records the outcome of one ingestion.
func (m *IngestMetrics) RecordIngest(ctx context.Context, outcome string, riskCount int) {
	ctx = context.WithoutCancel(ctx)
	m.ingestTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == "ok" {
		m.riskDetails.Record(ctx, int64(riskCount))
	}
}

// RecordAQIDegraded records an ingestion that fell back to "no AQI".
func (m *IngestMetrics) RecordAQIDegraded(ctx context.Context) {
	m.aqiDegradedTotal.Add(context.WithoutCancel(ctx), 1)
}
