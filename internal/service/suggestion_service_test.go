package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type suggestionRepoStub struct {
	created []*models.Suggestion
	read    map[string]bool
}

func newSuggestionRepoStub() *suggestionRepoStub {
	return &suggestionRepoStub{read: map[string]bool{}}
}

func (r *suggestionRepoStub) Create(ctx context.Context, suggestion *models.Suggestion) error {
	r.created = append(r.created, suggestion)
	return nil
}

func (r *suggestionRepoStub) List(ctx context.Context, unreadOnly bool) ([]models.Suggestion, error) {
	var out []models.Suggestion
	for _, s := range r.created {
		if unreadOnly && s.Read {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *suggestionRepoStub) MarkRead(ctx context.Context, id string) (int64, error) {
	if _, ok := r.read[id]; !ok {
		return 0, nil
	}
	r.read[id] = true
	return 1, nil
}

func TestSuggestionServiceCreateAnonymous(t *testing.T) {
	repo := newSuggestionRepoStub()
	svc := NewSuggestionService(repo, nil, nil)

	suggestion, err := svc.Create(context.Background(), "", CreateSuggestionRequest{
		Subject: "More past papers",
		Body:    "Please add 2020 physics papers.",
	})
	require.NoError(t, err)
	assert.Nil(t, suggestion.UserID)
	require.Len(t, repo.created, 1)
}

func TestSuggestionServiceCreateAttachesUser(t *testing.T) {
	repo := newSuggestionRepoStub()
	svc := NewSuggestionService(repo, nil, nil)

	suggestion, err := svc.Create(context.Background(), "u1", CreateSuggestionRequest{
		Subject: "Dark mode",
		Body:    "The site is hard to read at night.",
	})
	require.NoError(t, err)
	require.NotNil(t, suggestion.UserID)
	assert.Equal(t, "u1", *suggestion.UserID)
}

func TestSuggestionServiceCreateValidation(t *testing.T) {
	svc := NewSuggestionService(newSuggestionRepoStub(), nil, nil)

	_, err := svc.Create(context.Background(), "", CreateSuggestionRequest{Subject: "x", Body: ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSuggestionServiceMarkReadMissing(t *testing.T) {
	svc := NewSuggestionService(newSuggestionRepoStub(), nil, nil)

	err := svc.MarkRead(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
