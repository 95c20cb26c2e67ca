package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// BookmarkRepository maintains per-user bookmark sets in a join table with a
// (user_id, paper_id) primary key.
type BookmarkRepository struct {
	db *sqlx.DB
}

// NewBookmarkRepository creates a new bookmark repository.
func NewBookmarkRepository(db *sqlx.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Toggle flips membership of paperID in the user's bookmark set and returns
// the new state. DELETE-then-INSERT inside one transaction keeps rapid double
// toggles from corrupting the set: the conflict clause absorbs a racing add.
func (r *BookmarkRepository) Toggle(ctx context.Context, userID, paperID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin bookmark tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM bookmarks WHERE user_id = $1 AND paper_id = $2", userID, paperID)
	if err != nil {
		return false, fmt.Errorf("remove bookmark: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("bookmark rows affected: %w", err)
	}

	bookmarked := false
	if removed == 0 {
		const insert = `INSERT INTO bookmarks (user_id, paper_id, created_at)
            VALUES ($1, $2, $3)
            ON CONFLICT (user_id, paper_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, insert, userID, paperID, time.Now().UTC()); err != nil {
			return false, fmt.Errorf("add bookmark: %w", err)
		}
		bookmarked = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit bookmark tx: %w", err)
	}
	return bookmarked, nil
}

// ListIDs returns the user's bookmarked paper IDs in insertion order.
func (r *BookmarkRepository) ListIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	const query = "SELECT paper_id FROM bookmarks WHERE user_id = $1 ORDER BY created_at ASC"
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return ids, nil
}
