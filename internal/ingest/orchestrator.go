// Package ingest coordinates one ingestion: it fetches weather and air
// quality, runs the advisory and risk evaluators and stores the result.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/weatherwise/weatherwise/internal/advisory"
	"github.com/weatherwise/weatherwise/internal/observation"
	"github.com/weatherwise/weatherwise/internal/telemetry"
	"github.com/weatherwise/weatherwise/internal/weather"
)

// ErrUpstreamUnavailable is returned when the mandatory weather fetch fails.
var ErrUpstreamUnavailable = errors.New("upstream weather data unavailable")

// Recorder persists observation records.
type Recorder interface {
	Record(ctx context.Context, in observation.Input) (*observation.Record, error)
}

// Request is one ingestion request.
type Request struct {
	UserID     string
	Lat        float64
	Lon        float64
	IncludeAQI bool
}

// Result is the outcome of a successful ingestion.
type Result struct {
	Observation *weather.Observation
	AQI         *weather.AQI
	Advice      string
	Risk        advisory.RiskAssessment
	Record      *observation.Record
}

// Config holds configuration for the orchestrator.
type Config struct {
	Weather  weather.Provider
	Recorder Recorder
	Logger   zerolog.Logger

	// Metrics is optional.
	Metrics *telemetry.IngestMetrics

	// Tracer defaults to the global tracer.
	Tracer trace.Tracer
}

// Orchestrator runs ingestions. It holds no decision logic of its own.
type Orchestrator struct {
	weather  weather.Provider
	recorder Recorder
	logger   zerolog.Logger
	metrics  *telemetry.IngestMetrics
	tracer   trace.Tracer
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer("github.com/weatherwise/weatherwise/internal/ingest")
	}
	return &Orchestrator{
		weather:  cfg.Weather,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   tracer,
	}
}

// Ingest fetches current conditions for the request location, derives the
// advisory and risk, and stores the record.
//
// Weather is fetched concurrently with air quality. A weather failure fails
// the ingestion with ErrUpstreamUnavailable; an air quality failure is logged
// and the ingestion continues without an AQI.
func (o *Orchestrator) Ingest(ctx context.Context, req Request) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "ingest.Ingest", trace.WithAttributes(
		attribute.Float64("location.lat", req.Lat),
		attribute.Float64("location.lon", req.Lon),
		attribute.Bool("ingest.include_aqi", req.IncludeAQI),
	))
	defer span.End()

	if err := validate(req); err != nil {
		o.finish(ctx, span, "invalid", 0, err)
		return nil, err
	}

	var (
		obs *weather.Observation
		aqi *weather.AQI
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		obs, err = o.weather.GetCurrentWeather(gctx, req.Lat, req.Lon)
		if err == nil && obs == nil {
			return errors.New("provider returned no observation")
		}
		return err
	})
	if req.IncludeAQI {
		g.Go(func() error {
			aqi = o.fetchAQI(gctx, req)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error().Err(err).
			Str("user_id", req.UserID).
			Float64("lat", req.Lat).
			Float64("lon", req.Lon).
			Msg("weather fetch failed")
		err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		o.finish(ctx, span, "provider_error", 0, err)
		return nil, err
	}

	res, err := o.evaluateAndRecord(ctx, req.UserID, obs, aqi)
	if err != nil {
		o.finish(ctx, span, "persistence_error", 0, err)
		return nil, err
	}

	o.finish(ctx, span, "ok", len(res.Risk.Details), nil)
	return res, nil
}

// IngestSample stores a fixed sample observation for the user. It runs the
// same evaluators and store as Ingest but needs no provider.
func (o *Orchestrator) IngestSample(ctx context.Context, userID string) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "ingest.IngestSample")
	defer span.End()

	if err := observation.ValidateUserID(userID); err != nil {
		o.finish(ctx, span, "invalid", 0, err)
		return nil, err
	}

	obs, aqi := SampleObservation(time.Now())
	res, err := o.evaluateAndRecord(ctx, userID, obs, aqi)
	if err != nil {
		o.finish(ctx, span, "persistence_error", 0, err)
		return nil, err
	}

	o.finish(ctx, span, "ok", len(res.Risk.Details), nil)
	return res, nil
}

func (o *Orchestrator) evaluateAndRecord(ctx context.Context, userID string, obs *weather.Observation, aqi *weather.AQI) (*Result, error) {
	advice := advisory.DeriveAdvisory(obs, aqi)
	risk := advisory.DeriveRisk(obs, aqi)

	rec, err := o.recorder.Record(ctx, observation.Input{
		UserID:      userID,
		Observation: obs,
		AQI:         aqi,
		Advice:      advice,
		Risk:        risk,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("user_id", userID).
		Str("observation_id", rec.ID).
		Int("risk_count", len(risk.Details)).
		Bool("has_aqi", aqi != nil).
		Msg("observation ingested")

	return &Result{
		Observation: obs,
		AQI:         aqi,
		Advice:      advice,
		Risk:        risk,
		Record:      rec,
	}, nil
}

// fetchAQI returns nil when air quality cannot be fetched.
func (o *Orchestrator) fetchAQI(ctx context.Context, req Request) *weather.AQI {
	aq, err := o.weather.GetAirQuality(ctx, req.Lat, req.Lon)
	if err != nil {
		// Cancellation means the weather fetch already failed.
		if errors.Is(err, context.Canceled) {
			return nil
		}
		o.logger.Warn().Err(err).
			Str("user_id", req.UserID).
			Msg("air quality unavailable, continuing without AQI")
		if o.metrics != nil {
			o.metrics.RecordAQIDegraded(ctx)
		}
		return nil
	}
	if aq == nil || !aq.Index.Valid() {
		return nil
	}
	return aq.Index.Ptr()
}

func (o *Orchestrator) finish(ctx context.Context, span trace.Span, outcome string, riskCount int, err error) {
	span.SetAttributes(attribute.String("ingest.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	if o.metrics != nil {
		o.metrics.RecordIngest(ctx, outcome, riskCount)
	}
}

func validate(req Request) error {
	var fields []observation.FieldError
	if err := observation.ValidateUserID(req.UserID); err != nil {
		var verr *observation.ValidationError
		if errors.As(err, &verr) {
			fields = append(fields, verr.Errors...)
		}
	}
	if req.Lat < -90 || req.Lat > 90 {
		fields = append(fields, observation.FieldError{Field: "lat", Message: "must be between -90 and 90"})
	}
	if req.Lon < -180 || req.Lon > 180 {
		fields = append(fields, observation.FieldError{Field: "lon", Message: "must be between -180 and 180"})
	}
	if len(fields) > 0 {
		return &observation.ValidationError{Errors: fields}
	}
	return nil
}

// SampleObservation returns the fixed observation stored by IngestSample.
func SampleObservation(now time.Time) (*weather.Observation, *weather.AQI) {
	raw, _ := json.Marshal(map[string]any{ //nolint:errcheck // static payload
		"name":    "Test City",
		"coord":   map[string]float64{"lat": 40.7128, "lon": -74.006},
		"main":    map[string]float64{"temp": 25, "humidity": 55},
		"weather": []map[string]string{{"main": "Clear", "description": "clear sky"}},
		"sample":  true,
	})
	return &weather.Observation{
		Lat:            40.7128,
		Lon:            -74.006,
		HasCoordinates: true,
		LocationName:   "Test City",
		Temperature:    weather.Float64(25),
		Humidity:       weather.Float64(55),
		Condition:      "Clear",
		Description:    "clear sky",
		Raw:            raw,
		ObservedAt:     now.UTC(),
		FetchedAt:      now.UTC(),
	}, weather.AQIFair.Ptr()
}
