package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/weatherwise/weatherwise/internal/advisory"
	"github.com/weatherwise/weatherwise/internal/ingest"
	"github.com/weatherwise/weatherwise/internal/observation"
	"github.com/weatherwise/weatherwise/internal/weather"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	args := m.Called(ctx, lat, lon)
	obs, _ := args.Get(0).(*weather.Observation)
	return obs, args.Error(1)
}

func (m *mockProvider) GetAirQuality(ctx context.Context, lat, lon float64) (*weather.AirQuality, error) {
	args := m.Called(ctx, lat, lon)
	aq, _ := args.Get(0).(*weather.AirQuality)
	return aq, args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, in observation.Input) (*observation.Record, error) {
	args := m.Called(ctx, in)
	rec, _ := args.Get(0).(*observation.Record)
	return rec, args.Error(1)
}

func hotDay() *weather.Observation {
	return &weather.Observation{
		Lat:            6.5244,
		Lon:            3.3792,
		HasCoordinates: true,
		LocationName:   "Lagos",
		Temperature:    weather.Float64(42),
		Humidity:       weather.Float64(50),
		Condition:      "Clear",
		Description:    "clear sky",
	}
}

func newOrchestrator(p weather.Provider, r ingest.Recorder) (*ingest.Orchestrator, *tracetest.SpanRecorder) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	return ingest.New(ingest.Config{
		Weather:  p,
		Recorder: r,
		Logger:   zerolog.Nop(),
		Tracer:   tp.Tracer("test"),
	}), spans
}

func TestIngest_WithAirQuality(t *testing.T) {
	provider := &mockProvider{}
	provider.On("GetCurrentWeather", mock.Anything, 6.5244, 3.3792).Return(hotDay(), nil)
	provider.On("GetAirQuality", mock.Anything, 6.5244, 3.3792).
		Return(&weather.AirQuality{Index: weather.AQIVeryPoor}, nil)

	recorder := &mockRecorder{}
	recorder.On("Record", mock.Anything, mock.MatchedBy(func(in observation.Input) bool {
		return in.UserID == "user-1" && in.AQI != nil && *in.AQI == weather.AQIVeryPoor
	})).Return(&observation.Record{ID: "rec-1", UserID: "user-1"}, nil)

	orch, spans := newOrchestrator(provider, recorder)

	res, err := orch.Ingest(context.Background(), ingest.Request{
		UserID: "user-1", Lat: 6.5244, Lon: 3.3792, IncludeAQI: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "rec-1", res.Record.ID)
	require.NotNil(t, res.AQI)
	assert.Equal(t, weather.AQIVeryPoor, *res.AQI)
	assert.Equal(t, advisory.DeriveAdvisory(hotDay(), weather.AQIVeryPoor.Ptr()), res.Advice)
	assert.Equal(t, []string{advisory.RiskHeatstroke, advisory.RiskPoorAir}, res.Risk.Details)

	provider.AssertExpectations(t)
	recorder.AssertExpectations(t)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "ingest.Ingest", ended[0].Name())
}

func TestIngest_AirQualityFailureDegrades(t *testing.T) {
	provider := &mockProvider{}
	provider.On("GetCurrentWeather", mock.Anything, 6.5244, 3.3792).Return(hotDay(), nil)
	provider.On("GetAirQuality", mock.Anything, 6.5244, 3.3792).
		Return(nil, errors.New("air quality api down"))

	recorder := &mockRecorder{}
	recorder.On("Record", mock.Anything, mock.MatchedBy(func(in observation.Input) bool {
		return in.AQI == nil
	})).Return(&observation.Record{ID: "rec-2"}, nil)

	orch, _ := newOrchestrator(provider, recorder)

	res, err := orch.Ingest(context.Background(), ingest.Request{
		UserID: "user-1", Lat: 6.5244, Lon: 3.3792, IncludeAQI: true,
	})
	require.NoError(t, err)

	assert.Nil(t, res.AQI)
	assert.Equal(t, []string{advisory.RiskHeatstroke}, res.Risk.Details)
	assert.NotContains(t, res.Advice, "air quality")
	recorder.AssertExpectations(t)
}

func TestIngest_WithoutAirQuality(t *testing.T) {
	provider := &mockProvider{}
	provider.On("GetCurrentWeather", mock.Anything, 6.5244, 3.3792).Return(hotDay(), nil)

	recorder := &mockRecorder{}
	recorder.On("Record", mock.Anything, mock.Anything).Return(&observation.Record{ID: "rec-3"}, nil)

	orch, _ := newOrchestrator(provider, recorder)

	res, err := orch.Ingest(context.Background(), ingest.Request{UserID: "u", Lat: 6.5244, Lon: 3.3792})
	require.NoError(t, err)

	assert.Nil(t, res.AQI)
	provider.AssertNotCalled(t, "GetAirQuality", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_WeatherFailureIsFatal(t *testing.T) {
	provider := &mockProvider{}
	provider.On("GetCurrentWeather", mock.Anything, 6.5244, 3.3792).
		Return(nil, weather.ErrProviderUnavailable)
	provider.On("GetAirQuality", mock.Anything, 6.5244, 3.3792).
		Return(&weather.AirQuality{Index: weather.AQIGood}, nil).Maybe()

	recorder := &mockRecorder{}
	orch, spans := newOrchestrator(provider, recorder)

	_, err := orch.Ingest(context.Background(), ingest.Request{
		UserID: "u", Lat: 6.5244, Lon: 3.3792, IncludeAQI: true,
	})

	assert.ErrorIs(t, err, ingest.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
	recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Len(t, ended[0].Events(), 1, "error recorded on span")
}

func TestIngest_ValidationBeforeFetch(t *testing.T) {
	provider := &mockProvider{}
	recorder := &mockRecorder{}
	orch, _ := newOrchestrator(provider, recorder)

	_, err := orch.Ingest(context.Background(), ingest.Request{UserID: "", Lat: 95, Lon: -200})

	var verr *observation.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"userId", "lat", "lon"}, fields)

	provider.AssertNotCalled(t, "GetCurrentWeather", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_PersistenceErrorPropagates(t *testing.T) {
	provider := &mockProvider{}
	provider.On("GetCurrentWeather", mock.Anything, 6.5244, 3.3792).Return(hotDay(), nil)

	storeErr := &observation.PersistenceError{Op: "insert", Err: errors.New("disk full")}
	recorder := &mockRecorder{}
	recorder.On("Record", mock.Anything, mock.Anything).Return(nil, storeErr)

	orch, _ := newOrchestrator(provider, recorder)

	_, err := orch.Ingest(context.Background(), ingest.Request{UserID: "u", Lat: 6.5244, Lon: 3.3792})

	var perr *observation.PersistenceError
	assert.ErrorAs(t, err, &perr)
	recorder.AssertNumberOfCalls(t, "Record", 1)
}

func TestIngestSample(t *testing.T) {
	repo := observation.NewInMemoryRepository()
	recorder := observation.NewService(observation.ServiceConfig{Repository: repo, Logger: zerolog.Nop()})
	orch, _ := newOrchestrator(&mockProvider{}, recorder)

	res, err := orch.IngestSample(context.Background(), "user-9")
	require.NoError(t, err)

	assert.Equal(t, advisory.AdviceClear+" "+advisory.AdviceAQIFair, res.Advice)
	assert.Equal(t, advisory.NoRiskSentence, res.Risk.Overall)

	records, err := repo.ListRecent(context.Background(), "user-9", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Test City", *records[0].Location)
	assert.Equal(t, 25.0, *records[0].Temperature)
	assert.Equal(t, 55.0, *records[0].Humidity)
	assert.Equal(t, "clear sky", *records[0].Condition)
	assert.Equal(t, weather.AQIFair, *records[0].AQI)
}

func TestIngestSample_RequiresUserID(t *testing.T) {
	orch, _ := newOrchestrator(&mockProvider{}, &mockRecorder{})

	_, err := orch.IngestSample(context.Background(), "")

	var verr *observation.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSampleObservation(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	obs, aqi := ingest.SampleObservation(now)

	assert.Equal(t, "Test City", obs.LocationName)
	assert.True(t, obs.HasCoordinates)
	assert.Equal(t, "40.7128,-74.006", obs.CoordinatesLabel())
	assert.Equal(t, now, obs.ObservedAt)
	assert.Equal(t, weather.AQIFair, *aqi)
	assert.Contains(t, string(obs.Raw), `"sample":true`)
}
