package observation

import (
	"context"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the observation service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
}

// Service builds and persists observation records.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new observation service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}
}

// Record builds a record from in and stores it with a single insert.
// Store failures are returned as *PersistenceError and are not retried.
func (s *Service) Record(ctx context.Context, in Input) (*Record, error) {
	rec, err := NewRecord(in)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Insert(ctx, rec)
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", in.UserID).
			Msg("failed to store observation")
		return nil, &PersistenceError{Op: "insert", Err: err}
	}

	s.logger.Debug().
		Str("user_id", stored.UserID).
		Str("observation_id", stored.ID).
		Msg("observation stored")

	return stored, nil
}
