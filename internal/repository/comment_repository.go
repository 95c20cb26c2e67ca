package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/papervault/papervault-api/internal/models"
)

// CommentRepository handles the append-only comment log per paper.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create appends a comment. Comments are never updated or deleted.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO comments (id, paper_id, author_id, author_name, author_role, body, created_at)
        VALUES (:id, :paper_id, :author_id, :author_name, :author_role, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListByPaper returns all comments for a paper, newest first.
func (r *CommentRepository) ListByPaper(ctx context.Context, paperID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	const query = "SELECT id, paper_id, author_id, author_name, author_role, body, created_at FROM comments WHERE paper_id = $1 ORDER BY created_at DESC"
	if err := r.db.SelectContext(ctx, &comments, query, paperID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
