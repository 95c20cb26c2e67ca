package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/papervault/papervault-api/internal/models"
)

// RatingRepository maintains paper rating aggregates together with the
// per-user rating log.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository creates a new rating repository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Submit records a user's vote inside a single transaction. The paper row is
// locked so concurrent votes for the same paper serialize; a re-vote replaces
// the previous value without changing the rater count. Returns sql.ErrNoRows
// when the paper does not exist.
func (r *RatingRepository) Submit(ctx context.Context, paperID, userID string, value int) (*models.RatingSummary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rating tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var agg struct {
		AverageRating float64 `db:"average_rating"`
		RatingsCount  int     `db:"ratings_count"`
	}
	if err := tx.GetContext(ctx, &agg, "SELECT average_rating, ratings_count FROM papers WHERE id = $1 FOR UPDATE", paperID); err != nil {
		return nil, err
	}

	var previous int
	hadPrevious := true
	err = tx.GetContext(ctx, &previous, "SELECT value FROM paper_ratings WHERE paper_id = $1 AND user_id = $2", paperID, userID)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("load previous rating: %w", err)
		}
		hadPrevious = false
	}

	total := agg.AverageRating * float64(agg.RatingsCount)
	count := agg.RatingsCount
	if hadPrevious {
		total = total - float64(previous) + float64(value)
	} else {
		total += float64(value)
		count++
	}
	average := total / float64(count)

	now := time.Now().UTC()
	const upsert = `INSERT INTO paper_ratings (paper_id, user_id, value, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4)
        ON CONFLICT (paper_id, user_id)
        DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, paperID, userID, value, now); err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE papers SET average_rating = $1, ratings_count = $2, updated_at = $3 WHERE id = $4", average, count, now, paperID); err != nil {
		return nil, fmt.Errorf("update paper aggregates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rating tx: %w", err)
	}
	return &models.RatingSummary{AverageRating: average, RatingsCount: count}, nil
}

// FindByPaperAndUser returns the user's current vote on a paper.
func (r *RatingRepository) FindByPaperAndUser(ctx context.Context, paperID, userID string) (*models.RatingLogEntry, error) {
	var entry models.RatingLogEntry
	const query = "SELECT paper_id, user_id, value, created_at, updated_at FROM paper_ratings WHERE paper_id = $1 AND user_id = $2 LIMIT 1"
	if err := r.db.GetContext(ctx, &entry, query, paperID, userID); err != nil {
		return nil, err
	}
	return &entry, nil
}
