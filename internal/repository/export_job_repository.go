package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/papervault/papervault-api/internal/models"
)

const exportJobColumns = "id, format, level, status, progress, result_url, error_message, created_by, created_at, started_at, finished_at"

// UpdateExportJobParams carries partial updates for an export job row.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// ExportJobRepository persists catalogue export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository creates a new export job repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a queued job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	job.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO export_jobs (id, format, level, status, progress, created_by, created_at)
        VALUES (:id, :format, :level, :status, :progress, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID returns a job by identifier.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	query := fmt.Sprintf("SELECT %s FROM export_jobs WHERE id = $1 LIMIT 1", exportJobColumns)
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// Update applies the provided partial update.
func (r *ExportJobRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	setClauses := []string{}
	args := []interface{}{}
	add := func(clause string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf(clause, len(args)+1))
		args = append(args, value)
	}
	if params.Status != nil {
		add("status = $%d", *params.Status)
	}
	if params.Progress != nil {
		add("progress = $%d", *params.Progress)
	}
	if params.ResultURL != nil {
		add("result_url = $%d", *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		add("error_message = $%d", *params.ErrorMessage)
	}
	if params.StartedAt != nil {
		add("started_at = $%d", *params.StartedAt)
	}
	if params.FinishedAt != nil {
		add("finished_at = $%d", *params.FinishedAt)
	}
	if len(setClauses) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE export_jobs SET %s WHERE id = $%d", joinClauses(setClauses), len(args)+1)
	args = append(args, id)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	return nil
}

// ListQueued returns jobs awaiting processing, oldest first.
func (r *ExportJobRepository) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	jobs := []models.ExportJob{}
	query := fmt.Sprintf("SELECT %s FROM export_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2", exportJobColumns)
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportStatusQueued, limit); err != nil {
		return nil, fmt.Errorf("list queued export jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs older than the cutoff.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	jobs := []models.ExportJob{}
	query := fmt.Sprintf("SELECT %s FROM export_jobs WHERE status = $1 AND finished_at < $2 ORDER BY finished_at ASC LIMIT $3", exportJobColumns)
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportStatusFinished, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished export jobs: %w", err)
	}
	return jobs, nil
}

// Delete removes a job row.
func (r *ExportJobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM export_jobs WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete export job: %w", err)
	}
	return nil
}

func joinClauses(clauses []string) string {
	result := ""
	for i, clause := range clauses {
		if i > 0 {
			result += ", "
		}
		result += clause
	}
	return result
}
