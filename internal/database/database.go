// Package database provides PostgreSQL connection management and schema migrations.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration.
type Config struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost" validate:"required"`
	Port            int           `envconfig:"DB_PORT" default:"5432" validate:"min=1,max=65535"`
	User            string        `envconfig:"DB_USER" default:"weatherwise" validate:"required"`
	Password        string        `envconfig:"DB_PASSWORD" default:"localdev"`
	Database        string        `envconfig:"DB_NAME" default:"weatherwise" validate:"required"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2" validate:"min=0,ltefield=MaxConns"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`

	// AutoMigrate applies pending migrations when the API starts.
	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c Config) ConnectionString() string {
	return c.url("postgres")
}

// MigrationURL returns the connection string for the pgx v5 migrate driver.
func (c Config) MigrationURL() string {
	return c.url("pgx5")
}

func (c Config) url(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect creates a new database connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns) //nolint:gosec // bounded by config validation
	poolConfig.MinConns = int32(cfg.MinConns) //nolint:gosec // bounded by config validation
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
