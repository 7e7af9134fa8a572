package observation

import (
	"context"
	"time"
)

// Repository is the append-only record store.
// Reads return records newest first, ordered by CreatedAt.
type Repository interface {
	// Insert stores a record and returns it with ID and CreatedAt assigned.
	Insert(ctx context.Context, rec *Record) (*Record, error)

	// ListRecent returns up to limit of the user's newest records.
	ListRecent(ctx context.Context, userID string, limit int) ([]*Record, error)

	// ListSince returns all of the user's records created at or after since.
	ListSince(ctx context.Context, userID string, since time.Time) ([]*Record, error)
}
