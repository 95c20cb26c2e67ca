package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papervault/papervault-api/internal/models"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

type paperRepo interface {
	Create(ctx context.Context, paper *models.Paper) error
	FindByID(ctx context.Context, id string) (*models.Paper, error)
	List(ctx context.Context, scope models.PaperScope, filter models.PaperFilter) ([]models.Paper, error)
	Facets(ctx context.Context, scope models.PaperScope) (*models.PaperFacets, error)
	FetchByIDs(ctx context.Context, ids []string) ([]models.Paper, error)
}

type bookmarkSetReader interface {
	ListIDs(ctx context.Context, userID string) ([]string, error)
}

type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	PublicURL(filename string) string
}

// Viewer identifies the requesting user for role-scoped listings. The zero
// value is an anonymous viewer.
type Viewer struct {
	ID    string
	Role  models.UserRole
	Grade *models.Grade
}

// Anonymous reports whether the viewer is unauthenticated.
func (v Viewer) Anonymous() bool {
	return v.ID == ""
}

// UploadPaperRequest carries the multipart upload payload.
type UploadPaperRequest struct {
	Title       string        `validate:"required,min=3"`
	Description string        `validate:"max=2000"`
	Level       models.Level  `validate:"required"`
	Grade       *models.Grade `validate:"-"`
	Subject     string        `validate:"required"`
	Year        int           `validate:"required,gte=1900,lte=2100"`
	FileName    string        `validate:"required"`
	ContentType string        `validate:"required"`
	Size        int64         `validate:"required,gt=0"`
	File        io.Reader     `validate:"-"`
}

// PaperServiceConfig bounds uploads.
type PaperServiceConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	FacetCacheTTL    time.Duration
}

// PaperService serves role-scoped listings and handles uploads.
type PaperService struct {
	papers    paperRepo
	bookmarks bookmarkSetReader
	store     fileStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PaperServiceConfig
}

// NewPaperService constructs PaperService.
func NewPaperService(papers paperRepo, bookmarks bookmarkSetReader, store fileStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg PaperServiceConfig) *PaperService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 20 * 1024 * 1024
	}
	return &PaperService{
		papers:    papers,
		bookmarks: bookmarks,
		store:     store,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// List applies the viewer-role default restriction, the explicit filters, and
// the bookmark annotation, and computes facets from the role-scoped candidate
// set rather than the fully filtered output.
func (s *PaperService) List(ctx context.Context, viewer Viewer, filter models.PaperFilter) (*models.PaperListing, error) {
	scope := s.scopeFor(viewer, filter)

	// Grade is a high-school sub-classification; ignore it only when an
	// explicit level filter targets a different tier. With no level filter the
	// grade stands and overrides the viewer's own-grade restriction.
	if filter.Grade != "" && filter.Level != "" && filter.Level != models.LevelHighSchool {
		filter.Grade = ""
	}
	if filter.Level != "" && !models.ValidLevel(filter.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level filter")
	}
	if filter.Grade != "" && !models.ValidGrade(filter.Grade) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade filter")
	}

	papers, err := s.papers.List(ctx, scope, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list papers")
	}

	facets, err := s.facets(ctx, scope)
	if err != nil {
		return nil, err
	}

	bookmarked := map[string]struct{}{}
	if !viewer.Anonymous() {
		ids, err := s.bookmarks.ListIDs(ctx, viewer.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookmarks")
		}
		for _, id := range ids {
			bookmarked[id] = struct{}{}
		}
	}

	views := make([]models.PaperView, 0, len(papers))
	for _, p := range papers {
		_, isBookmarked := bookmarked[p.ID]
		views = append(views, models.PaperView{Paper: p, IsBookmarked: isBookmarked})
	}

	return &models.PaperListing{Papers: views, Facets: *facets}, nil
}

// GetByID returns a single paper annotated for the viewer.
func (s *PaperService) GetByID(ctx context.Context, viewer Viewer, id string) (*models.PaperView, error) {
	paper, err := s.papers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}
	view := &models.PaperView{Paper: *paper}
	if !viewer.Anonymous() {
		ids, err := s.bookmarks.ListIDs(ctx, viewer.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookmarks")
		}
		for _, bid := range ids {
			if bid == id {
				view.IsBookmarked = true
				break
			}
		}
	}
	return view, nil
}

// Upload validates the payload, stores the file, and creates the paper record.
func (s *PaperService) Upload(ctx context.Context, uploaderID string, req UploadPaperRequest) (*models.Paper, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	if !models.ValidLevel(req.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level")
	}
	if req.Level == models.LevelHighSchool {
		if req.Grade == nil || !models.ValidGrade(*req.Grade) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "high school papers require a grade")
		}
	} else if req.Grade != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade applies only to high school papers")
	}
	if req.Size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.ErrFileTooLarge
	}
	if !s.mimeAllowed(req.ContentType) {
		return nil, appErrors.ErrUnsupportedFile
	}

	filename := fmt.Sprintf("papers/%s%s", uuid.NewString(), filepath.Ext(req.FileName))
	if _, err := s.store.SaveStream(filename, req.File); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store paper file")
	}

	paper := &models.Paper{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Grade:       req.Grade,
		Subject:     req.Subject,
		Year:        req.Year,
		FileURL:     s.store.PublicURL(filename),
		UploadedBy:  uploaderID,
	}
	if err := s.papers.Create(ctx, paper); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create paper")
	}

	s.invalidateFacets(ctx)
	return paper, nil
}

func (s *PaperService) scopeFor(viewer Viewer, filter models.PaperFilter) models.PaperScope {
	scope := models.PaperScope{}
	if viewer.Anonymous() || viewer.Role == models.RoleAdmin {
		return scope
	}
	if filter.Level != "" {
		return scope
	}
	level, ok := models.LevelForRole(viewer.Role)
	if !ok {
		return scope
	}
	scope.Level = level
	if viewer.Role == models.RoleHighSchool && filter.Grade == "" && viewer.Grade != nil {
		scope.Grade = *viewer.Grade
	}
	return scope
}

func (s *PaperService) facets(ctx context.Context, scope models.PaperScope) (*models.PaperFacets, error) {
	key := fmt.Sprintf("papers:facets:%s:%s", scope.Level, scope.Grade)
	if s.cache.Enabled() {
		var cached models.PaperFacets
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}
	facets, err := s.papers.Facets(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute filter options")
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, facets, s.cfg.FacetCacheTTL); err != nil {
			s.logger.Warn("facet cache write failed", zap.Error(err))
		}
	}
	return facets, nil
}

func (s *PaperService) invalidateFacets(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "papers:facets:*"); err != nil {
		s.logger.Warn("facet cache invalidation failed", zap.Error(err))
	}
}

func (s *PaperService) mimeAllowed(contentType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if contentType == allowed {
			return true
		}
	}
	return false
}
