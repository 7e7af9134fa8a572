package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/weatherwise/weatherwise/internal/api/models"
	"github.com/weatherwise/weatherwise/internal/api/response"
	"github.com/weatherwise/weatherwise/internal/history"
	"github.com/weatherwise/weatherwise/internal/observation"
)

// noDataMessage is returned with 200 when the summary window is empty.
const noDataMessage = "No data for the last 7 days"

// HistoryReader answers history queries.
type HistoryReader interface {
	RecentHistory(ctx context.Context, userID string, limit int) ([]*observation.Record, error)
	RecentAlerts(ctx context.Context, userID string) ([]history.Alert, error)
	WeeklySummary(ctx context.Context, userID string) (*history.Summary, error)
}

// HistoryHandler handles the per-user read endpoints.
type HistoryHandler struct {
	history HistoryReader
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(reader HistoryReader) *HistoryHandler {
	return &HistoryHandler{history: reader}
}

// History handles GET /history/{userId} - newest records first.
// An optional ?limit= narrows or widens the default page.
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, r, "limit must be an integer", []models.FieldError{
				{Field: "limit", Message: "must be an integer", Code: "NUMERIC"},
			})
			return
		}
		limit = n
	}

	records, err := h.history.RecentHistory(r.Context(), chi.URLParam(r, "userId"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]models.ObservationRecord, 0, len(records))
	for _, rec := range records {
		items = append(items, toObservationRecord(rec))
	}
	response.JSON(w, r, http.StatusOK, models.HistoryResponse{History: items})
}

// Alerts handles GET /alerts/{userId} - recent records that carried a risk.
func (h *HistoryHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.history.RecentAlerts(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]models.AlertItem, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, toAlertItem(a))
	}
	response.JSON(w, r, http.StatusOK, models.AlertsResponse{Alerts: items})
}

// Summary handles GET /summary/{userId} - 7-day averages and latest risk.
func (h *HistoryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.history.WeeklySummary(r.Context(), chi.URLParam(r, "userId"))
	if errors.Is(err, history.ErrNoData) {
		response.JSON(w, r, http.StatusOK, models.MessageResponse{Message: noDataMessage})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SummaryResponse{
		DaysOfData:  summary.DaysOfData,
		AvgTemp:     summary.AvgTemp,
		AvgHumidity: summary.AvgHumidity,
		RecentRisk:  summary.RecentRisk,
	})
}
