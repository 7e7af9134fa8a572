// Package history answers read queries over a user's stored observations:
// recent history, recent alerts and a rolling 7-day summary.
package history

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherwise/weatherwise/internal/advisory"
	"github.com/weatherwise/weatherwise/internal/observation"
)

// Query limits and windows.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
	AlertScanLimit      = 20
	SummaryWindow       = 7 * 24 * time.Hour

	// NoRecentRisk is reported when the newest record in the window has no risk.
	NoRecentRisk = "No data"
)

// ErrNoData is returned by WeeklySummary when the window holds no records.
var ErrNoData = errors.New("no data for the last 7 days")

// Alert is a record that carried at least one risk.
type Alert struct {
	ID        string
	Timestamp time.Time
	Location  *string
	Alert     string
	Advice    string
}

// Summary aggregates the records of the last 7 days.
type Summary struct {
	// DaysOfData is the number of records in the window, not distinct days.
	DaysOfData  int
	AvgTemp     float64
	AvgHumidity float64
	RecentRisk  string
}

// ServiceConfig holds configuration for the history service.
type ServiceConfig struct {
	Repository observation.Repository
	Logger     zerolog.Logger

	// Now is the clock used for the summary window (default: time.Now).
	Now func() time.Time
}

// Service provides history queries.
type Service struct {
	repo   observation.Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		now:    now,
	}
}

// RecentHistory returns the user's newest records. A limit <= 0 means
// DefaultHistoryLimit; larger limits are capped at MaxHistoryLimit.
func (s *Service) RecentHistory(ctx context.Context, userID string, limit int) ([]*observation.Record, error) {
	if err := observation.ValidateUserID(userID); err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	records, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, s.readFailed(err, userID, "list recent")
	}
	if records == nil {
		records = []*observation.Record{}
	}
	return records, nil
}

// RecentAlerts looks at the user's 20 newest records and returns those that
// carried a risk, newest first.
func (s *Service) RecentAlerts(ctx context.Context, userID string) ([]Alert, error) {
	if err := observation.ValidateUserID(userID); err != nil {
		return nil, err
	}

	records, err := s.repo.ListRecent(ctx, userID, AlertScanLimit)
	if err != nil {
		return nil, s.readFailed(err, userID, "list alerts")
	}

	alerts := make([]Alert, 0, len(records))
	for _, rec := range records {
		if rec.Risk == "" || advisory.IsNoRisk(rec.Risk) {
			continue
		}
		alerts = append(alerts, Alert{
			ID:        rec.ID,
			Timestamp: rec.CreatedAt,
			Location:  rec.Location,
			Alert:     rec.Risk,
			Advice:    rec.Advice,
		})
	}
	return alerts, nil
}

// WeeklySummary aggregates the user's records created in the last 7 days.
// It returns ErrNoData when there are none.
//
// Missing temperature or humidity values are averaged as 0.
func (s *Service) WeeklySummary(ctx context.Context, userID string) (*Summary, error) {
	if err := observation.ValidateUserID(userID); err != nil {
		return nil, err
	}

	since := s.now().Add(-SummaryWindow)
	records, err := s.repo.ListSince(ctx, userID, since)
	if err != nil {
		return nil, s.readFailed(err, userID, "list since")
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	var tempSum, humSum float64
	for _, rec := range records {
		if rec.Temperature != nil {
			tempSum += *rec.Temperature
		}
		if rec.Humidity != nil {
			humSum += *rec.Humidity
		}
	}

	n := float64(len(records))
	summary := &Summary{
		DaysOfData:  len(records),
		AvgTemp:     roundOneDecimal(tempSum / n),
		AvgHumidity: roundOneDecimal(humSum / n),
		RecentRisk:  records[0].Risk,
	}
	if summary.RecentRisk == "" {
		summary.RecentRisk = NoRecentRisk
	}
	return summary, nil
}

func (s *Service) readFailed(err error, userID, op string) error {
	s.logger.Error().Err(err).
		Str("user_id", userID).
		Str("op", op).
		Msg("failed to read observations")
	return &observation.PersistenceError{Op: op, Err: err}
}

// roundOneDecimal rounds half away from zero to one decimal place.
func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
