package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/papervault/papervault-api/internal/models"
)

// fetchByIDsChunk bounds identifier-set queries, matching the batch-get limit
// of the upstream store contract.
const fetchByIDsChunk = 30

const paperColumns = "id, title, description, level, grade, subject, year, file_url, average_rating, ratings_count, uploaded_by, created_at, updated_at"

// PaperRepository handles question paper persistence.
type PaperRepository struct {
	db *sqlx.DB
}

// NewPaperRepository creates a new paper repository.
func NewPaperRepository(db *sqlx.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

// Create inserts a new paper with zeroed rating aggregates.
func (r *PaperRepository) Create(ctx context.Context, paper *models.Paper) error {
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	paper.CreatedAt = now
	paper.UpdatedAt = now
	const query = `INSERT INTO papers (id, title, description, level, grade, subject, year, file_url, average_rating, ratings_count, uploaded_by, created_at, updated_at)
        VALUES (:id, :title, :description, :level, :grade, :subject, :year, :file_url, :average_rating, :ratings_count, :uploaded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, paper); err != nil {
		return fmt.Errorf("create paper: %w", err)
	}
	return nil
}

// FindByID returns a single paper.
func (r *PaperRepository) FindByID(ctx context.Context, id string) (*models.Paper, error) {
	var paper models.Paper
	query := fmt.Sprintf("SELECT %s FROM papers WHERE id = $1 LIMIT 1", paperColumns)
	if err := r.db.GetContext(ctx, &paper, query, id); err != nil {
		return nil, err
	}
	return &paper, nil
}

// List returns papers within the scope matching the filter, newest first.
func (r *PaperRepository) List(ctx context.Context, scope models.PaperScope, filter models.PaperFilter) ([]models.Paper, error) {
	query := fmt.Sprintf("SELECT %s FROM papers WHERE 1=1", paperColumns)
	var args []interface{}
	if scope.Level != "" {
		query += fmt.Sprintf(" AND level = $%d", len(args)+1)
		args = append(args, scope.Level)
	}
	if scope.Grade != "" {
		query += fmt.Sprintf(" AND grade = $%d", len(args)+1)
		args = append(args, scope.Grade)
	}
	if filter.Query != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+escapeLike(filter.Query)+"%")
	}
	if filter.Level != "" {
		query += fmt.Sprintf(" AND level = $%d", len(args)+1)
		args = append(args, filter.Level)
	}
	if filter.Grade != "" {
		query += fmt.Sprintf(" AND grade = $%d", len(args)+1)
		args = append(args, filter.Grade)
	}
	if filter.Subject != "" {
		query += fmt.Sprintf(" AND subject = $%d", len(args)+1)
		args = append(args, filter.Subject)
	}
	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", len(args)+1)
		args = append(args, *filter.Year)
	}
	query += " ORDER BY created_at DESC"
	var papers []models.Paper
	if err := r.db.SelectContext(ctx, &papers, query, args...); err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return papers, nil
}

// Facets returns the distinct subjects and years available inside the scope.
func (r *PaperRepository) Facets(ctx context.Context, scope models.PaperScope) (*models.PaperFacets, error) {
	where := "WHERE 1=1"
	var args []interface{}
	if scope.Level != "" {
		where += fmt.Sprintf(" AND level = $%d", len(args)+1)
		args = append(args, scope.Level)
	}
	if scope.Grade != "" {
		where += fmt.Sprintf(" AND grade = $%d", len(args)+1)
		args = append(args, scope.Grade)
	}

	facets := &models.PaperFacets{Subjects: []string{}, Years: []int{}}
	subjectQuery := fmt.Sprintf("SELECT DISTINCT subject FROM papers %s ORDER BY subject ASC", where)
	if err := r.db.SelectContext(ctx, &facets.Subjects, subjectQuery, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	yearQuery := fmt.Sprintf("SELECT DISTINCT year FROM papers %s ORDER BY year DESC", where)
	if err := r.db.SelectContext(ctx, &facets.Years, yearQuery, args...); err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	return facets, nil
}

// FetchByIDs loads papers for an identifier set, chunking requests so no
// single query exceeds the batch-get limit. Order of ids is preserved.
func (r *PaperRepository) FetchByIDs(ctx context.Context, ids []string) ([]models.Paper, error) {
	if len(ids) == 0 {
		return []models.Paper{}, nil
	}
	byID := make(map[string]models.Paper, len(ids))
	for start := 0; start < len(ids); start += fetchByIDsChunk {
		end := start + fetchByIDsChunk
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		query := fmt.Sprintf("SELECT %s FROM papers WHERE id IN (%s)", paperColumns, strings.Join(placeholders, ","))
		var papers []models.Paper
		if err := r.db.SelectContext(ctx, &papers, query, args...); err != nil {
			return nil, fmt.Errorf("fetch papers by ids: %w", err)
		}
		for _, p := range papers {
			byID[p.ID] = p
		}
	}
	result := make([]models.Paper, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func escapeLike(raw string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(raw)
}
