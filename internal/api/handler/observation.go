package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/weatherwise/weatherwise/internal/api/models"
	"github.com/weatherwise/weatherwise/internal/api/response"
	"github.com/weatherwise/weatherwise/internal/ingest"
)

// Ingester runs ingestions.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
	IngestSample(ctx context.Context, userID string) (*ingest.Result, error)
}

// ObservationHandler handles the ingestion endpoints.
type ObservationHandler struct {
	ingester Ingester
	validate *validator.Validate
	timeout  time.Duration
}

// NewObservationHandler creates a new ObservationHandler.
func NewObservationHandler(ingester Ingester) *ObservationHandler {
	return &ObservationHandler{
		ingester: ingester,
		validate: newValidator(),
	}
}

// WithTimeout bounds each ingestion. It should stay below the server's write
// timeout so a slow provider is reported as a problem response.
func (h *ObservationHandler) WithTimeout(d time.Duration) *ObservationHandler {
	h.timeout = d
	return h
}

func (h *ObservationHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// Ingest handles POST /weather - fetch, evaluate and store current conditions.
func (h *ObservationHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var input models.IngestRequest
	if !decodeAndValidate(w, r, h.validate, &input) {
		return
	}

	includeAQI := true
	if input.IncludeAQI != nil {
		includeAQI = *input.IncludeAQI
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.ingester.Ingest(ctx, ingest.Request{
		UserID:     input.UserID,
		Lat:        *input.Lat,
		Lon:        *input.Lon,
		IncludeAQI: includeAQI,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toIngestResponse(res))
}

// Sample handles POST /mock - store a fixed sample observation for a user.
func (h *ObservationHandler) Sample(w http.ResponseWriter, r *http.Request) {
	var input models.SampleRequest
	if !decodeAndValidate(w, r, h.validate, &input) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.ingester.IngestSample(ctx, input.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toIngestResponse(res))
}
