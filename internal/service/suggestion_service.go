package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type suggestionRepo interface {
	Create(ctx context.Context, suggestion *models.Suggestion) error
	List(ctx context.Context, unreadOnly bool) ([]models.Suggestion, error)
	MarkRead(ctx context.Context, id string) (int64, error)
}

// CreateSuggestionRequest is the contact-form payload. Name and email are
// optional so anonymous visitors can send feedback.
type CreateSuggestionRequest struct {
	Name    string `json:"name" validate:"max=120"`
	Email   string `json:"email" validate:"omitempty,email"`
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Body    string `json:"body" validate:"required,min=3,max=4000"`
}

// SuggestionService stores feedback addressed to administrators.
type SuggestionService struct {
	suggestions suggestionRepo
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSuggestionService constructs SuggestionService.
func NewSuggestionService(suggestions suggestionRepo, validate *validator.Validate, logger *zap.Logger) *SuggestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{suggestions: suggestions, validator: validate, logger: logger}
}

// Create stores a new suggestion. userID may be empty for anonymous senders.
func (s *SuggestionService) Create(ctx context.Context, userID string, req CreateSuggestionRequest) (*models.Suggestion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suggestion payload")
	}
	suggestion := &models.Suggestion{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if userID != "" {
		suggestion.UserID = &userID
	}
	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create suggestion")
	}
	return suggestion, nil
}

// List returns suggestions for administrators.
func (s *SuggestionService) List(ctx context.Context, unreadOnly bool) ([]models.Suggestion, error) {
	suggestions, err := s.suggestions.List(ctx, unreadOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suggestions")
	}
	return suggestions, nil
}

// MarkRead flips the read flag.
func (s *SuggestionService) MarkRead(ctx context.Context, id string) error {
	affected, err := s.suggestions.MarkRead(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark suggestion read")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "suggestion not found")
	}
	return nil
}
