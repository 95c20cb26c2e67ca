package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type userRepoStub struct {
	users map[string]*models.User
	roles map[string]models.UserRole
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: map[string]*models.User{}, roles: map[string]models.UserRole{}}
}

func (r *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *userRepoStub) UpdateProfile(ctx context.Context, id, fullName string, grade *models.Grade) error {
	user := r.users[id]
	user.FullName = fullName
	if grade != nil {
		user.Grade = grade
	}
	return nil
}

func (r *userRepoStub) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	r.roles[id] = role
	r.users[id].Role = role
	return nil
}

func TestUserServiceUpdateProfileGradeOnlyForHighSchool(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["u1"] = &models.User{ID: "u1", Role: models.RoleCollege, FullName: "Student A"}
	svc := NewUserService(repo, nil, nil)

	grade := models.Grade12
	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{FullName: "Student A", Grade: &grade})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateRoleRequiresAdmin(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["u1"] = &models.User{ID: "u1", Role: models.RoleCollege}
	svc := NewUserService(repo, nil, nil)

	actor := &models.JWTClaims{UserID: "u2", Role: models.RoleCollege}
	_, err := svc.UpdateRole(context.Background(), actor, "u1", UpdateRoleRequest{Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	admin := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	updated, err := svc.UpdateRole(context.Background(), admin, "u1", UpdateRoleRequest{Role: models.RoleUniversity})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUniversity, updated.Role)
	assert.Equal(t, models.RoleUniversity, repo.roles["u1"])
}

func TestUserServiceGetMissingUser(t *testing.T) {
	svc := NewUserService(newUserRepoStub(), nil, nil)

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
