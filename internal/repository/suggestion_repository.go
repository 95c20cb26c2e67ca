package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/papervault/papervault-api/internal/models"
)

// SuggestionRepository stores contact-form feedback for administrators.
type SuggestionRepository struct {
	db *sqlx.DB
}

// NewSuggestionRepository creates a new suggestion repository.
func NewSuggestionRepository(db *sqlx.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// Create inserts a suggestion in unread state.
func (r *SuggestionRepository) Create(ctx context.Context, suggestion *models.Suggestion) error {
	if suggestion.ID == "" {
		suggestion.ID = uuid.NewString()
	}
	suggestion.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO suggestions (id, name, email, user_id, subject, body, read, created_at)
        VALUES (:id, :name, :email, :user_id, :subject, :body, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, suggestion); err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

// List returns suggestions, optionally limited to unread ones, newest first.
func (r *SuggestionRepository) List(ctx context.Context, unreadOnly bool) ([]models.Suggestion, error) {
	suggestions := []models.Suggestion{}
	query := "SELECT id, name, email, user_id, subject, body, read, created_at FROM suggestions"
	if unreadOnly {
		query += " WHERE read = FALSE"
	}
	query += " ORDER BY created_at DESC"
	if err := r.db.SelectContext(ctx, &suggestions, query); err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	return suggestions, nil
}

// MarkRead flips the read flag. Returns the number of affected rows.
func (r *SuggestionRepository) MarkRead(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE suggestions SET read = TRUE WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("mark suggestion read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("suggestion rows affected: %w", err)
	}
	return affected, nil
}
