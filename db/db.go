package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	schema string
	logger zerolog.Logger
}

// NewDB opens a Postgres connection for connStr and makes sure the schema exists.
// The schema name comes from DB_SCHEMA and defaults to review_scraper.
func NewDB(ctx context.Context, connStr string, logger zerolog.Logger) (*DB, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn:   conn,
		schema: getEnvOrDefault("DB_SCHEMA", "review_scraper"),
		logger: logger.With().Str("component", "db").Logger(),
	}

	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// table returns the schema qualified, quoted name of table
func (db *DB) table(name string) string {
	return pq.QuoteIdentifier(db.schema) + "." + pq.QuoteIdentifier(name)
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+pq.QuoteIdentifier(db.schema))
	if err != nil {
		// If schema creation fails (e.g., permission denied), assume it already exists
		db.logger.Warn().Err(err).Str("schema", db.schema).Msg("Could not create schema (may already exist)")
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+db.table("scrape_runs")+` (
			id UUID PRIMARY KEY,
			base_url TEXT NOT NULL,
			max_pages INTEGER NOT NULL,
			pages_fetched INTEGER NOT NULL DEFAULT 0,
			pages_failed INTEGER NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scrape_runs table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+db.table("reviews")+` (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES `+db.table("scrape_runs")+`(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			rating DOUBLE PRECISION,
			title TEXT,
			review_text TEXT NOT NULL,
			reviewer_name TEXT,
			review_date TEXT,
			helpful_votes INTEGER,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reviews table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_reviews_run_id ON `+db.table("reviews")+`(run_id)`)
	if err != nil {
		db.logger.Warn().Err(err).Msg("Failed to create index on reviews.run_id")
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_scrape_runs_started_at ON `+db.table("scrape_runs")+`(started_at)`)
	if err != nil {
		db.logger.Warn().Err(err).Msg("Failed to create index on scrape_runs.started_at")
	}

	db.logger.Debug().Str("schema", db.schema).Msg("Database schema initialized")
	return nil
}
