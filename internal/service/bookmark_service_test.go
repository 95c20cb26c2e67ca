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

type bookmarkRepoStub struct {
	sets map[string][]string
}

func newBookmarkRepoStub() *bookmarkRepoStub {
	return &bookmarkRepoStub{sets: map[string][]string{}}
}

func (r *bookmarkRepoStub) Toggle(ctx context.Context, userID, paperID string) (bool, error) {
	ids := r.sets[userID]
	for i, id := range ids {
		if id == paperID {
			r.sets[userID] = append(ids[:i], ids[i+1:]...)
			return false, nil
		}
	}
	r.sets[userID] = append(ids, paperID)
	return true, nil
}

func (r *bookmarkRepoStub) ListIDs(ctx context.Context, userID string) ([]string, error) {
	return r.sets[userID], nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func (r *userReaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type paperFetcherStub struct {
	papers map[string]models.Paper
}

func (r *paperFetcherStub) FetchByIDs(ctx context.Context, ids []string) ([]models.Paper, error) {
	result := make([]models.Paper, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.papers[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func TestBookmarkServiceToggleIsSelfInverse(t *testing.T) {
	repo := newBookmarkRepoStub()
	users := &userReaderStub{users: map[string]*models.User{"u1": {ID: "u1"}}}
	svc := NewBookmarkService(repo, users, &paperFetcherStub{}, nil)

	on, err := svc.Toggle(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := svc.Toggle(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.False(t, off)

	ids, err := repo.ListIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBookmarkServiceToggleUnknownUser(t *testing.T) {
	svc := NewBookmarkService(newBookmarkRepoStub(), &userReaderStub{users: map[string]*models.User{}}, &paperFetcherStub{}, nil)

	_, err := svc.Toggle(context.Background(), "ghost", "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookmarkServiceListPreservesOrder(t *testing.T) {
	repo := newBookmarkRepoStub()
	repo.sets["u1"] = []string{"p2", "p1"}
	papers := &paperFetcherStub{papers: map[string]models.Paper{
		"p1": {ID: "p1", Title: "First"},
		"p2": {ID: "p2", Title: "Second"},
	}}
	users := &userReaderStub{users: map[string]*models.User{"u1": {ID: "u1"}}}
	svc := NewBookmarkService(repo, users, papers, nil)

	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)
	assert.Equal(t, "p1", list[1].ID)
}
