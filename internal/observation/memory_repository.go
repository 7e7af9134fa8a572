package observation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local runs. Production uses PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*Record // insertion order
	lastAt  time.Time
	now     func() time.Time
}

// NewInMemoryRepository creates a new in-memory observation repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: time.Now}
}

// WithClock sets the clock used to stamp CreatedAt. Intended for tests.
func (r *InMemoryRepository) WithClock(now func() time.Time) *InMemoryRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	return r
}

// Insert stores a copy of rec.
func (r *InMemoryRepository) Insert(_ context.Context, rec *Record) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := rec.clone()
	stored.ID = uuid.NewString()

	// Keep CreatedAt non-decreasing even if the clock steps backwards.
	createdAt := r.now().UTC()
	if createdAt.Before(r.lastAt) {
		createdAt = r.lastAt
	}
	r.lastAt = createdAt
	stored.CreatedAt = createdAt

	r.records = append(r.records, stored)
	return stored.clone(), nil
}

// ListRecent returns up to limit of the user's newest records.
func (r *InMemoryRepository) ListRecent(_ context.Context, userID string, limit int) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Record
	for i := len(r.records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if rec := r.records[i]; rec.UserID == userID {
			out = append(out, rec.clone())
		}
	}
	return out, nil
}

// ListSince returns the user's records created at or after since, newest first.
func (r *InMemoryRepository) ListSince(_ context.Context, userID string, since time.Time) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Record
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if rec.CreatedAt.Before(since) {
			// Older records only follow.
			break
		}
		if rec.UserID != userID {
			continue
		}
		out = append(out, rec.clone())
	}
	return out, nil
}

// Len returns the total number of stored records.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
