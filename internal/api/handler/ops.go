package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/weatherwise/weatherwise/internal/api/models"
	"github.com/weatherwise/weatherwise/internal/api/response"
	"github.com/weatherwise/weatherwise/internal/provider/resilience"
)

// pingTimeout bounds the database check of the readiness and status endpoints.
const pingTimeout = 2 * time.Second

// Pinger checks a dependency is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Database is nil when records are kept in memory.
	Database Pinger

	// Providers reports upstream provider health (optional).
	Providers *resilience.Registry
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready - 503 until the database answers.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())

	status := http.StatusOK
	if db.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, models.Health{
		Status:  db.Status,
		Time:    models.Timestamp(h.now()),
		Details: map[string]any{db.Name: db.Status},
	})
}

// SystemStatus handles GET /v1/ops/status - database and provider status.
// Any open provider circuit degrades the overall status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())

	overall := db.Status
	var providers []models.ProviderStatus
	if h.cfg.Providers != nil {
		for _, ph := range h.cfg.Providers.AllHealth() {
			ps := toProviderStatus(ph)
			if ps.Status != models.HealthStatusOK && overall == models.HealthStatusOK {
				overall = models.HealthStatusDegraded
			}
			providers = append(providers, ps)
		}
	}
	if providers == nil {
		providers = []models.ProviderStatus{}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:     overall,
		Time:       models.Timestamp(h.now()),
		Subsystems: []models.SubsystemStatus{db},
		Providers:  providers,
	})
}

func (h *OpsHandler) checkDatabase(ctx context.Context) models.SubsystemStatus {
	if h.cfg.Database == nil {
		detail := "in-memory store"
		return models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK, Detail: &detail}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.cfg.Database.Ping(ctx); err != nil {
		detail := err.Error()
		return models.SubsystemStatus{Name: "database", Status: models.HealthStatusFail, Detail: &detail}
	}
	return models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
}

func toProviderStatus(ph resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		CircuitState:        ph.CircuitState.String(),
		Requests:            ph.Counts.Requests,
		ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
	}

	switch ph.Status() {
	case "healthy":
		ps.Status = models.HealthStatusOK
	case "degraded":
		ps.Status = models.HealthStatusDegraded
	default:
		ps.Status = models.HealthStatusFail
	}

	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
