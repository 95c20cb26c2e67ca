package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

// ratingSubmitRetries bounds retries on transaction serialization failures
// before surfacing a conflict to the caller.
const ratingSubmitRetries = 3

type ratingRepo interface {
	Submit(ctx context.Context, paperID, userID string, value int) (*models.RatingSummary, error)
	FindByPaperAndUser(ctx context.Context, paperID, userID string) (*models.RatingLogEntry, error)
}

// RatingService keeps paper rating aggregates consistent with the per-user
// rating log.
type RatingService struct {
	ratings ratingRepo
	logger  *zap.Logger
}

// NewRatingService constructs RatingService.
func NewRatingService(ratings ratingRepo, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{ratings: ratings, logger: logger}
}

// Submit records the user's vote. A repeat vote replaces the previous value
// and leaves the rater count unchanged.
func (s *RatingService) Submit(ctx context.Context, paperID, userID string, value int) (*models.RatingSummary, error) {
	if value < 1 || value > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating value must be between 1 and 5")
	}
	if paperID == "" || userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "paper and user are required")
	}

	var lastErr error
	for attempt := 0; attempt < ratingSubmitRetries; attempt++ {
		summary, err := s.ratings.Submit(ctx, paperID, userID, value)
		if err == nil {
			return summary, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		if !isSerializationFailure(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit rating")
		}
		lastErr = err
		s.logger.Warn("rating transaction conflicted, retrying",
			zap.String("paper_id", paperID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, appErrors.Wrap(lastErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "rating submission conflicted, please retry")
}

// Get returns the user's current vote on a paper, or nil when absent.
func (s *RatingService) Get(ctx context.Context, paperID, userID string) (*models.RatingLogEntry, error) {
	entry, err := s.ratings.FindByPaperAndUser(ctx, paperID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rating")
	}
	return entry, nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
