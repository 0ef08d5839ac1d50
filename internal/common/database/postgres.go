package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketing-api/internal/common/config"

	_ "github.com/lib/pq"
)

const postgresPingTimeout = 5 * time.Second

// PostgresClient holds the pool behind the lead dispatch ledger. The ledger
// writes one row per routed lead, so the pool stays small and long-lived.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("postgres host and database are required")
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping is also the readiness check, so it carries its own deadline.
func (c *PostgresClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, postgresPingTimeout)
	defer cancel()

	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
