package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/weatherwise/weatherwise/internal/ingest"
	"github.com/weatherwise/weatherwise/internal/observation"
	"github.com/weatherwise/weatherwise/internal/worker"
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

func newProcessor(ing worker.Ingester) *worker.Processor {
	return worker.NewProcessor(worker.ProcessorConfig{Ingester: ing, Logger: zerolog.Nop()})
}

func TestProcessor_Ingest(t *testing.T) {
	ing := new(mockIngester)
	ing.On("Ingest", mock.Anything, ingest.Request{UserID: "u1", Lat: 51.5, Lon: -0.12, IncludeAQI: true}).
		Return(&ingest.Result{}, nil)

	err := newProcessor(ing).Process(context.Background(), []byte(`{"user_id":"u1","lat":51.5,"lon":-0.12}`))

	require.NoError(t, err)
	ing.AssertExpectations(t)
}

func TestProcessor_IncludeAQIFalse(t *testing.T) {
	ing := new(mockIngester)
	ing.On("Ingest", mock.Anything, ingest.Request{UserID: "u1", Lat: 1, Lon: 2, IncludeAQI: false}).
		Return(&ingest.Result{}, nil)

	err := newProcessor(ing).Process(context.Background(), []byte(`{"user_id":"u1","lat":1,"lon":2,"include_aqi":false}`))

	require.NoError(t, err)
	ing.AssertExpectations(t)
}

func TestProcessor_Sample(t *testing.T) {
	ing := new(mockIngester)
	ing.On("IngestSample", mock.Anything, "u1").Return(&ingest.Result{}, nil)

	err := newProcessor(ing).Process(context.Background(), []byte(`{"user_id":"u1","sample":true}`))

	require.NoError(t, err)
	ing.AssertExpectations(t)
	ing.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestProcessor_AppliesTimeout(t *testing.T) {
	ing := new(mockIngester)
	ing.On("Ingest", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
		}).
		Return(&ingest.Result{}, nil)

	p := worker.NewProcessor(worker.ProcessorConfig{Ingester: ing, Logger: zerolog.Nop(), Timeout: 5 * time.Second})
	require.NoError(t, p.Process(context.Background(), []byte(`{"user_id":"u1","lat":1,"lon":2}`)))
}

func TestProcessor_MissingCoordinates(t *testing.T) {
	ing := new(mockIngester)

	err := newProcessor(ing).Process(context.Background(), []byte(`{"user_id":"u1","lat":1}`))

	var verr *observation.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "lon", verr.Errors[0].Field)
	ing.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestProcessor_Handle(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		err      error
		expected worker.Outcome
	}{
		{"success", `{"user_id":"u1","lat":1,"lon":2}`, nil, worker.Ack},
		{"malformed json", `{"user_id":`, nil, worker.Ack},
		{"missing coordinates", `{"user_id":"u1"}`, nil, worker.Ack},
		{
			"invalid user",
			`{"user_id":"","lat":1,"lon":2}`,
			&observation.ValidationError{Errors: []observation.FieldError{{Field: "userId", Message: "is required"}}},
			worker.Ack,
		},
		{"upstream failure", `{"user_id":"u1","lat":1,"lon":2}`, ingest.ErrUpstreamUnavailable, worker.Nack},
		{
			"store failure",
			`{"user_id":"u1","lat":1,"lon":2}`,
			&observation.PersistenceError{Op: "insert", Err: errors.New("connection reset")},
			worker.Nack,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := new(mockIngester)
			ing.On("Ingest", mock.Anything, mock.Anything).Return(&ingest.Result{}, tt.err).Maybe()

			outcome := newProcessor(ing).Handle(context.Background(), "msg-1", []byte(tt.data))

			assert.Equal(t, tt.expected, outcome, "got %s", outcome)
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "ack", worker.Ack.String())
	assert.Equal(t, "nack", worker.Nack.String())
}
