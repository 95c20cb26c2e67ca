package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type commentRepo interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPaper(ctx context.Context, paperID string) ([]models.Comment, error)
}

type paperReader interface {
	FindByID(ctx context.Context, id string) (*models.Paper, error)
}

// CreateCommentRequest is the comment submission payload. Author identity is
// snapshotted from the authenticated user.
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

// CommentService appends immutable comments and serves live full-snapshot
// subscriptions. Each comment creation publishes a notification on a
// per-paper Redis channel; subscribers reload the complete list and replace
// their previous snapshot.
type CommentService struct {
	comments  commentRepo
	papers    paperReader
	pubsub    *redis.Client
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs CommentService. The Redis client may be nil,
// which disables live subscriptions but keeps create/list working.
func NewCommentService(comments commentRepo, papers paperReader, pubsub *redis.Client, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{comments: comments, papers: papers, pubsub: pubsub, validator: validate, logger: logger}
}

// Create appends a comment to a paper and notifies subscribers.
func (s *CommentService) Create(ctx context.Context, paperID string, author models.User, req CreateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	if _, err := s.papers.FindByID(ctx, paperID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}

	comment := &models.Comment{
		PaperID:    paperID,
		AuthorID:   author.ID,
		AuthorName: author.FullName,
		AuthorRole: author.Role,
		Body:       req.Body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}

	if s.pubsub != nil {
		if err := s.pubsub.Publish(ctx, channelFor(paperID), comment.ID).Err(); err != nil {
			s.logger.Warn("comment publish failed", zap.String("paper_id", paperID), zap.Error(err))
		}
	}
	return comment, nil
}

// List returns all comments for a paper, newest first.
func (s *CommentService) List(ctx context.Context, paperID string) ([]models.Comment, error) {
	comments, err := s.comments.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// Subscribe streams full comment snapshots for a paper until ctx is
// cancelled. The first snapshot is sent immediately; subsequent snapshots
// follow each publish notification. Consumers replace, never merge.
func (s *CommentService) Subscribe(ctx context.Context, paperID string) (<-chan []models.Comment, error) {
	if s.pubsub == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "live comments are not available")
	}
	if _, err := s.papers.FindByID(ctx, paperID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}

	sub := s.pubsub.Subscribe(ctx, channelFor(paperID))
	out := make(chan []models.Comment, 1)

	go func() {
		defer close(out)
		defer sub.Close() //nolint:errcheck

		send := func() bool {
			snapshot, err := s.comments.ListByPaper(ctx, paperID)
			if err != nil {
				s.logger.Warn("comment snapshot failed", zap.String("paper_id", paperID), zap.Error(err))
				return true
			}
			select {
			case out <- snapshot:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				if !send() {
					return
				}
			}
		}
	}()

	return out, nil
}

func channelFor(paperID string) string {
	return fmt.Sprintf("comments:%s", paperID)
}
