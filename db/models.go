package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"review-scraper/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Run represents one scraping run
type Run struct {
	ID           uuid.UUID
	BaseURL      string
	MaxPages     int
	PagesFetched int
	PagesFailed  int
	ReviewCount  int
	Duration     time.Duration
	StartedAt    time.Time
}

var reviewColumns = []string{
	"run_id", "position", "rating", "title", "review_text", "reviewer_name", "review_date", "helpful_votes",
}

// SaveRun stores the run and its reviews in one transaction; nothing is stored on failure
func (db *DB) SaveRun(ctx context.Context, run Run, reviews []models.Review) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO `+db.table("scrape_runs")+` (id, base_url, max_pages, pages_fetched, pages_failed, review_count, duration_ms, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID.String(), run.BaseURL, run.MaxPages, run.PagesFetched, run.PagesFailed, run.ReviewCount,
		run.Duration.Milliseconds(), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(db.schema, "reviews", reviewColumns...))
	if err != nil {
		return fmt.Errorf("failed to prepare review copy: %w", err)
	}
	for i, r := range reviews {
		if _, err := stmt.ExecContext(ctx, reviewRow(run.ID, i+1, r)...); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy review %d: %w", i+1, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush review copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close review copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	db.logger.Info().Str("run_id", run.ID.String()).Int("reviews", len(reviews)).Msg("Run saved to database")
	return nil
}

// reviewRow returns the values for one reviews row in reviewColumns order
func reviewRow(runID uuid.UUID, position int, r models.Review) []any {
	return []any{
		runID.String(),
		position,
		nullFloat(r.Rating),
		nullString(r.Title),
		r.ReviewText,
		nullString(r.ReviewerName),
		nullString(r.Date),
		nullInt(r.HelpfulVotes),
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
