package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type userRepo interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, fullName string, grade *models.Grade) error
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	FullName string        `json:"full_name" validate:"required,min=2"`
	Grade    *models.Grade `json:"grade,omitempty"`
}

// UpdateRoleRequest promotes or demotes a user.
type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=ADMIN HIGH_SCHOOL COLLEGE UNIVERSITY"`
}

// UserService manages profiles and role assignment.
type UserService struct {
	users     userRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(users userRepo, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, validator: validate, logger: logger}
}

// Get returns a user profile.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// UpdateProfile edits the caller's own profile. A grade may only be set for
// high-school accounts.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Grade != nil {
		if user.Role != models.RoleHighSchool {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grade applies only to high school accounts")
		}
		if !models.ValidGrade(*req.Grade) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade")
		}
	}
	if err := s.users.UpdateProfile(ctx, id, req.FullName, req.Grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return s.Get(ctx, id)
}

// UpdateRole changes another user's role. Only admins may call this; the
// route is gated, and the service re-checks to refuse privilege escalation
// through other entry points.
func (s *UserService) UpdateRole(ctx context.Context, actor *models.JWTClaims, targetID string, req UpdateRoleRequest) (*models.User, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can change roles")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	if _, err := s.Get(ctx, targetID); err != nil {
		return nil, err
	}
	if err := s.users.UpdateRole(ctx, targetID, req.Role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}
	return s.Get(ctx, targetID)
}
