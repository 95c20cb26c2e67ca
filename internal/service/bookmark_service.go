package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type bookmarkRepo interface {
	Toggle(ctx context.Context, userID, paperID string) (bool, error)
	ListIDs(ctx context.Context, userID string) ([]string, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type paperBatchFetcher interface {
	FetchByIDs(ctx context.Context, ids []string) ([]models.Paper, error)
}

// BookmarkService toggles membership in per-user bookmark sets.
type BookmarkService struct {
	bookmarks bookmarkRepo
	users     userReader
	papers    paperBatchFetcher
	logger    *zap.Logger
}

// NewBookmarkService constructs BookmarkService.
func NewBookmarkService(bookmarks bookmarkRepo, users userReader, papers paperBatchFetcher, logger *zap.Logger) *BookmarkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookmarkService{bookmarks: bookmarks, users: users, papers: papers, logger: logger}
}

// Toggle flips the bookmark state for (user, paper) and returns the new state:
// true when the paper is now bookmarked.
func (s *BookmarkService) Toggle(ctx context.Context, userID, paperID string) (bool, error) {
	if userID == "" || paperID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "paper and user are required")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	bookmarked, err := s.bookmarks.Toggle(ctx, userID, paperID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle bookmark")
	}
	return bookmarked, nil
}

// List resolves the user's bookmarks to papers, preserving insertion order.
func (s *BookmarkService) List(ctx context.Context, userID string) ([]models.Paper, error) {
	ids, err := s.bookmarks.ListIDs(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookmarks")
	}
	papers, err := s.papers.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookmarked papers")
	}
	return papers, nil
}
