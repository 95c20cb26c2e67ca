package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type commentRepoStub struct {
	comments map[string][]models.Comment
}

func newCommentRepoStub() *commentRepoStub {
	return &commentRepoStub{comments: map[string][]models.Comment{}}
}

func (r *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	r.comments[comment.PaperID] = append(r.comments[comment.PaperID], *comment)
	return nil
}

func (r *commentRepoStub) ListByPaper(ctx context.Context, paperID string) ([]models.Comment, error) {
	return r.comments[paperID], nil
}

func TestCommentServiceCreateSnapshotsAuthor(t *testing.T) {
	repo := newCommentRepoStub()
	papers := &paperRepoStub{byID: map[string]*models.Paper{"p1": {ID: "p1"}}}
	svc := NewCommentService(repo, papers, nil, nil, nil)

	author := models.User{ID: "u1", FullName: "Student A", Role: models.RoleHighSchool}
	comment, err := svc.Create(context.Background(), "p1", author, CreateCommentRequest{Body: "Very helpful paper."})
	require.NoError(t, err)
	assert.Equal(t, "Student A", comment.AuthorName)
	assert.Equal(t, models.RoleHighSchool, comment.AuthorRole)
	require.Len(t, repo.comments["p1"], 1)
}

func TestCommentServiceCreateMissingPaper(t *testing.T) {
	svc := NewCommentService(newCommentRepoStub(), &paperRepoStub{byID: map[string]*models.Paper{}}, nil, nil, nil)

	_, err := svc.Create(context.Background(), "ghost", models.User{ID: "u1"}, CreateCommentRequest{Body: "Hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCommentServiceSubscribeRequiresRedis(t *testing.T) {
	svc := NewCommentService(newCommentRepoStub(), &paperRepoStub{byID: map[string]*models.Paper{"p1": {ID: "p1"}}}, nil, nil, nil)

	_, err := svc.Subscribe(context.Background(), "p1")
	require.Error(t, err)
}
