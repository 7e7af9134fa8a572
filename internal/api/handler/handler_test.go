package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/weatherwise/weatherwise/internal/advisory"
	"github.com/weatherwise/weatherwise/internal/api/handler"
	"github.com/weatherwise/weatherwise/internal/api/models"
	"github.com/weatherwise/weatherwise/internal/history"
	"github.com/weatherwise/weatherwise/internal/ingest"
	"github.com/weatherwise/weatherwise/internal/observation"
	"github.com/weatherwise/weatherwise/internal/weather"
)

type mockIngester struct {
	mock.Mock
}

func (m *mockIngester) Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*ingest.Result)
	return res, args.Error(1)
}

func (m *mockIngester) IngestSample(ctx context.Context, userID string) (*ingest.Result, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).(*ingest.Result)
	return res, args.Error(1)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) RecentHistory(ctx context.Context, userID string, limit int) ([]*observation.Record, error) {
	args := m.Called(ctx, userID, limit)
	recs, _ := args.Get(0).([]*observation.Record)
	return recs, args.Error(1)
}

func (m *mockHistory) RecentAlerts(ctx context.Context, userID string) ([]history.Alert, error) {
	args := m.Called(ctx, userID)
	alerts, _ := args.Get(0).([]history.Alert)
	return alerts, args.Error(1)
}

func (m *mockHistory) WeeklySummary(ctx context.Context, userID string) (*history.Summary, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*history.Summary)
	return s, args.Error(1)
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/weather", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// getUser routes through chi so that {userId} resolves.
func getUser(pattern string, h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get(pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rec
}

func problemOf(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestObservationHandler_Ingest_MapsRequest(t *testing.T) {
	ing := new(mockIngester)
	location := "Oslo"
	aqi := weather.AQIGood
	ing.On("Ingest", mock.Anything, ingest.Request{UserID: "u1", Lat: 59.9, Lon: 10.7, IncludeAQI: false}).
		Return(&ingest.Result{
			Observation: &weather.Observation{Lat: 59.9, Lon: 10.7, HasCoordinates: true},
			AQI:         &aqi,
			Advice:      advisory.AdviceCold,
			Risk:        advisory.RiskAssessment{Overall: advisory.RiskColdStress, Details: []string{advisory.RiskColdStress}},
			Record: &observation.Record{
				ID:        "rec-1",
				UserID:    "u1",
				Location:  &location,
				AQI:       &aqi,
				CreatedAt: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
			},
		}, nil)

	h := handler.NewObservationHandler(ing)
	rec := post(h.Ingest, `{"userId":"u1","lat":59.9,"lon":10.7,"includeAQI":false}`)

	require.Equal(t, http.StatusOK, rec.Code)
	ing.AssertExpectations(t)

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rec-1", resp.ID)
	assert.Equal(t, "Oslo", *resp.Location)
	assert.Equal(t, 1, *resp.AQIIndex)
	assert.Equal(t, &models.Coords{Lat: 59.9, Lon: 10.7}, resp.Coords)
	assert.Equal(t, advisory.RiskColdStress, resp.HealthRisk.Overall)
	assert.Equal(t, time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC), resp.CreatedAt.Time())
}

func TestObservationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{
			name:   "validation",
			err:    &observation.ValidationError{Errors: []observation.FieldError{{Field: "userId", Message: "is required"}}},
			status: http.StatusBadRequest,
			typ:    models.ProblemTypeValidation,
		},
		{
			name:   "upstream",
			err:    errors.Join(ingest.ErrUpstreamUnavailable, errors.New("timeout")),
			status: http.StatusBadGateway,
			typ:    models.ProblemTypeUpstream,
		},
		{
			name:   "persistence",
			err:    &observation.PersistenceError{Op: "insert", Err: errors.New("disk full")},
			status: http.StatusInternalServerError,
			typ:    models.ProblemTypeInternal,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			typ:    models.ProblemTypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := new(mockIngester)
			ing.On("IngestSample", mock.Anything, "u1").Return(nil, tt.err)

			rec := post(handler.NewObservationHandler(ing).Sample, `{"userId":"u1"}`)

			assert.Equal(t, tt.status, rec.Code)
			p := problemOf(t, rec)
			assert.Equal(t, tt.typ, p.Type)
			if tt.name == "validation" {
				require.Len(t, p.Errors, 1)
				assert.Equal(t, "userId", p.Errors[0].Field)
			}
		})
	}
}

func TestObservationHandler_RejectsBeforeIngesting(t *testing.T) {
	ing := new(mockIngester)
	h := handler.NewObservationHandler(ing)

	rec := post(h.Ingest, `{"userId":"u1","lat":"north","lon":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h.Ingest, `{"userId":"u1","lat":-90.5,"lon":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	p := problemOf(t, rec)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "lat", p.Errors[0].Field)
	assert.Equal(t, "GTE", p.Errors[0].Code)

	ing.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestHistoryHandler_PassesLimit(t *testing.T) {
	hist := new(mockHistory)
	hist.On("RecentHistory", mock.Anything, "u1", 5).Return([]*observation.Record{}, nil)

	rec := getUser("/history/{userId}", handler.NewHistoryHandler(hist).History, "/history/u1?limit=5")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"history":[]}`, rec.Body.String())
	hist.AssertExpectations(t)
}

func TestHistoryHandler_StoreFailure(t *testing.T) {
	hist := new(mockHistory)
	storeErr := &observation.PersistenceError{Op: "list recent", Err: errors.New("connection reset")}
	hist.On("RecentAlerts", mock.Anything, "u1").Return(nil, storeErr)

	rec := getUser("/alerts/{userId}", handler.NewHistoryHandler(hist).Alerts, "/alerts/u1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHistoryHandler_Alerts(t *testing.T) {
	hist := new(mockHistory)
	ts := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	hist.On("RecentAlerts", mock.Anything, "u1").Return([]history.Alert{
		{ID: "a1", Timestamp: ts, Alert: advisory.RiskHeatstroke, Advice: advisory.AdviceExtremeHeat},
	}, nil)

	rec := getUser("/alerts/{userId}", handler.NewHistoryHandler(hist).Alerts, "/alerts/u1")

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.AlertsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, "a1", body.Alerts[0].ID)
	assert.Equal(t, ts, body.Alerts[0].Date.Time())
	assert.Nil(t, body.Alerts[0].Location)
}

func TestHistoryHandler_Summary(t *testing.T) {
	hist := new(mockHistory)
	hist.On("WeeklySummary", mock.Anything, "u1").Return(&history.Summary{
		DaysOfData: 3, AvgTemp: 16.7, AvgHumidity: 50.3, RecentRisk: advisory.NoRiskSentence,
	}, nil)
	hist.On("WeeklySummary", mock.Anything, "u2").Return(nil, history.ErrNoData)

	h := handler.NewHistoryHandler(hist)

	rec := getUser("/summary/{userId}", h.Summary, "/summary/u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"daysOfData":3,"avgTemp":16.7,"avgHumidity":50.3,"recentRisk":"No major health risks today"}`, rec.Body.String())

	rec = getUser("/summary/{userId}", h.Summary, "/summary/u2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"No data for the last 7 days"}`, rec.Body.String())
}
