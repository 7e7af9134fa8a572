package observation

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weatherwise/weatherwise/internal/weather"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// The raw provider payload is stored zstd-compressed.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	codec *rawCodec
}

// NewPostgresRepository creates a new PostgreSQL observation repository.
func NewPostgresRepository(pool *pgxpool.Pool) (*PostgresRepository, error) {
	codec, err := newRawCodec()
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{pool: pool, codec: codec}, nil
}

const selectColumns = `
	id::text, user_id, location, temperature, humidity, condition, aqi,
	advice, risk, raw, created_at
`

// Insert stores a record. id and created_at come from the database.
func (r *PostgresRepository) Insert(ctx context.Context, rec *Record) (*Record, error) {
	query := `
		INSERT INTO observations (
			user_id, location, temperature, humidity, condition, aqi,
			advice, risk, raw
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text, created_at
	`

	stored := rec.clone()
	err := r.pool.QueryRow(ctx, query,
		rec.UserID,
		rec.Location,
		rec.Temperature,
		rec.Humidity,
		rec.Condition,
		aqiToDB(rec.AQI),
		rec.Advice,
		rec.Risk,
		r.codec.encode(rec.Raw),
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// ListRecent returns up to limit of the user's newest records.
func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*Record, error) {
	query := `SELECT ` + selectColumns + `
		FROM observations
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return r.scanRecords(rows)
}

// ListSince returns the user's records created at or after since, newest first.
func (r *PostgresRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]*Record, error) {
	query := `SELECT ` + selectColumns + `
		FROM observations
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, seq DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	return r.scanRecords(rows)
}

func (r *PostgresRepository) scanRecords(rows pgx.Rows) ([]*Record, error) {
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			rec Record
			aqi *int16
			raw []byte
		)
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Location,
			&rec.Temperature,
			&rec.Humidity,
			&rec.Condition,
			&aqi,
			&rec.Advice,
			&rec.Risk,
			&raw,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if aqi != nil {
			rec.AQI = weather.AQI(*aqi).Ptr()
		}
		if rec.Raw, err = r.codec.decode(raw); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func aqiToDB(aqi *weather.AQI) *int16 {
	if aqi == nil {
		return nil
	}
	v := int16(*aqi)
	return &v
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
