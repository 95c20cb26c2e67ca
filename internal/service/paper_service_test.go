package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type paperRepoStub struct {
	papers     []models.Paper
	byID       map[string]*models.Paper
	created    []*models.Paper
	lastScope  models.PaperScope
	lastFilter models.PaperFilter
	facetScope models.PaperScope
	facets     models.PaperFacets
}

func (r *paperRepoStub) Create(ctx context.Context, paper *models.Paper) error {
	r.created = append(r.created, paper)
	return nil
}

func (r *paperRepoStub) FindByID(ctx context.Context, id string) (*models.Paper, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (r *paperRepoStub) List(ctx context.Context, scope models.PaperScope, filter models.PaperFilter) ([]models.Paper, error) {
	r.lastScope = scope
	r.lastFilter = filter
	return r.papers, nil
}

func (r *paperRepoStub) Facets(ctx context.Context, scope models.PaperScope) (*models.PaperFacets, error) {
	r.facetScope = scope
	facets := r.facets
	return &facets, nil
}

func (r *paperRepoStub) FetchByIDs(ctx context.Context, ids []string) ([]models.Paper, error) {
	return nil, nil
}

type bookmarkIDsStub struct {
	ids map[string][]string
}

func (r *bookmarkIDsStub) ListIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids[userID], nil
}

type fileStoreStub struct {
	saved map[string][]byte
}

func (s *fileStoreStub) SaveStream(filename string, r io.Reader) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[filename] = data
	return filename, nil
}

func (s *fileStoreStub) PublicURL(filename string) string {
	return "http://files/" + filename
}

func newPaperServiceForTest(repo *paperRepoStub, bookmarks *bookmarkIDsStub) *PaperService {
	if bookmarks == nil {
		bookmarks = &bookmarkIDsStub{}
	}
	return NewPaperService(repo, bookmarks, &fileStoreStub{}, nil, nil, nil, PaperServiceConfig{
		MaxFileSizeBytes: 1024,
		AllowedMIMEs:     []string{"application/pdf"},
	})
}

func TestPaperServiceListDefaultsScopeToViewerLevel(t *testing.T) {
	repo := &paperRepoStub{}
	svc := newPaperServiceForTest(repo, nil)

	grade := models.Grade11
	viewer := Viewer{ID: "u1", Role: models.RoleHighSchool, Grade: &grade}
	_, err := svc.List(context.Background(), viewer, models.PaperFilter{})
	require.NoError(t, err)

	assert.Equal(t, models.LevelHighSchool, repo.lastScope.Level)
	assert.Equal(t, models.Grade11, repo.lastScope.Grade)
}

func TestPaperServiceListExplicitLevelOverridesScope(t *testing.T) {
	repo := &paperRepoStub{}
	svc := newPaperServiceForTest(repo, nil)

	viewer := Viewer{ID: "u1", Role: models.RoleCollege}
	_, err := svc.List(context.Background(), viewer, models.PaperFilter{Level: models.LevelUniversity})
	require.NoError(t, err)

	assert.Empty(t, repo.lastScope.Level)
	assert.Equal(t, models.LevelUniversity, repo.lastFilter.Level)
}

func TestPaperServiceListAdminAndAnonymousUnscoped(t *testing.T) {
	repo := &paperRepoStub{}
	svc := newPaperServiceForTest(repo, nil)

	_, err := svc.List(context.Background(), Viewer{}, models.PaperFilter{})
	require.NoError(t, err)
	assert.Empty(t, repo.lastScope.Level)

	_, err = svc.List(context.Background(), Viewer{ID: "a1", Role: models.RoleAdmin}, models.PaperFilter{})
	require.NoError(t, err)
	assert.Empty(t, repo.lastScope.Level)
}

func TestPaperServiceListDropsGradeForOtherLevels(t *testing.T) {
	repo := &paperRepoStub{}
	svc := newPaperServiceForTest(repo, nil)

	filter := models.PaperFilter{Level: models.LevelCollege, Grade: models.Grade10}
	_, err := svc.List(context.Background(), Viewer{}, filter)
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter.Grade)
}

func TestPaperServiceListExplicitGradeOverridesViewerGrade(t *testing.T) {
	repo := &paperRepoStub{}
	svc := newPaperServiceForTest(repo, nil)

	grade := models.Grade11
	viewer := Viewer{ID: "u1", Role: models.RoleHighSchool, Grade: &grade}
	_, err := svc.List(context.Background(), viewer, models.PaperFilter{Grade: models.Grade12})
	require.NoError(t, err)

	// The explicit grade filter replaces the viewer's own-grade restriction.
	assert.Equal(t, models.LevelHighSchool, repo.lastScope.Level)
	assert.Empty(t, repo.lastScope.Grade)
	assert.Equal(t, models.Grade12, repo.lastFilter.Grade)
}

func TestPaperServiceListFacetsComputedFromScope(t *testing.T) {
	repo := &paperRepoStub{facets: models.PaperFacets{Subjects: []string{"Math", "Physics"}, Years: []int{2024}}}
	svc := newPaperServiceForTest(repo, nil)

	viewer := Viewer{ID: "u1", Role: models.RoleCollege}
	listing, err := svc.List(context.Background(), viewer, models.PaperFilter{Subject: "Math"})
	require.NoError(t, err)

	// Facets reflect the viewer scope, not the subject filter.
	assert.Equal(t, models.LevelCollege, repo.facetScope.Level)
	assert.Equal(t, []string{"Math", "Physics"}, listing.Facets.Subjects)
}

func TestPaperServiceListAnnotatesBookmarks(t *testing.T) {
	repo := &paperRepoStub{papers: []models.Paper{{ID: "p1"}, {ID: "p2"}}}
	bookmarks := &bookmarkIDsStub{ids: map[string][]string{"u1": {"p2"}}}
	svc := newPaperServiceForTest(repo, bookmarks)

	listing, err := svc.List(context.Background(), Viewer{ID: "u1", Role: models.RoleAdmin}, models.PaperFilter{})
	require.NoError(t, err)
	require.Len(t, listing.Papers, 2)
	assert.False(t, listing.Papers[0].IsBookmarked)
	assert.True(t, listing.Papers[1].IsBookmarked)
}

func TestPaperServiceUploadValidatesFile(t *testing.T) {
	repo := &paperRepoStub{}
	svc := newPaperServiceForTest(repo, nil)

	grade := models.Grade12
	base := UploadPaperRequest{
		Title:       "Algebra Final",
		Level:       models.LevelHighSchool,
		Grade:       &grade,
		Subject:     "Mathematics",
		Year:        2024,
		FileName:    "algebra.pdf",
		ContentType: "application/pdf",
		Size:        100,
		File:        bytes.NewReader([]byte("dummy")),
	}

	tooBig := base
	tooBig.Size = 4096
	_, err := svc.Upload(context.Background(), "admin-1", tooBig)
	assert.Equal(t, appErrors.ErrFileTooLarge.Code, appErrors.FromError(err).Code)

	badType := base
	badType.ContentType = "application/zip"
	_, err = svc.Upload(context.Background(), "admin-1", badType)
	assert.Equal(t, appErrors.ErrUnsupportedFile.Code, appErrors.FromError(err).Code)

	paper, err := svc.Upload(context.Background(), "admin-1", base)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", paper.UploadedBy)
	assert.Contains(t, paper.FileURL, "http://files/papers/")
	require.Len(t, repo.created, 1)
}

func TestPaperServiceUploadGradePairing(t *testing.T) {
	svc := newPaperServiceForTest(&paperRepoStub{}, nil)

	req := UploadPaperRequest{
		Title:       "Biology Midterm",
		Level:       models.LevelHighSchool,
		Subject:     "Biology",
		Year:        2024,
		FileName:    "bio.pdf",
		ContentType: "application/pdf",
		Size:        10,
		File:        bytes.NewReader([]byte("x")),
	}
	_, err := svc.Upload(context.Background(), "admin-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	grade := models.Grade10
	req.Level = models.LevelUniversity
	req.Grade = &grade
	_, err = svc.Upload(context.Background(), "admin-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
