package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault/papervault-api/internal/models"
	"github.com/papervault/papervault-api/internal/repository"
	"github.com/papervault/papervault-api/pkg/jobs"
	"github.com/papervault/papervault-api/pkg/storage"
)

type exportJobStoreStub struct {
	jobs map[string]*models.ExportJob
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return job, nil
}

func (r *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return errors.New("not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.StartedAt != nil {
		job.StartedAt = params.StartedAt
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	var finished []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			finished = append(finished, *job)
		}
	}
	return finished, nil
}

func (r *exportJobStoreStub) Delete(ctx context.Context, id string) error {
	delete(r.jobs, id)
	return nil
}

type queueStub struct {
	enqueued []jobs.Job
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

type exportPapersStub struct {
	papers []models.Paper
	scope  models.PaperScope
}

func (s *exportPapersStub) List(ctx context.Context, scope models.PaperScope, filter models.PaperFilter) ([]models.Paper, error) {
	s.scope = scope
	return s.papers, nil
}

func newExportJobServiceForTest(t *testing.T, store *exportJobStoreStub, papers *exportPapersStub, queue *queueStub) *ExportJobService {
	t.Helper()
	localStore, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	exporter := NewExportService(localStore, signer)
	return NewExportJobService(store, papers, queue, exporter, nil, ExportJobServiceConfig{
		ResultTTL:        time.Hour,
		DownloadBasePath: "/api/v1/exports/download",
	})
}

func TestExportJobServiceCreateJobEnqueues(t *testing.T) {
	store := newExportJobStoreStub()
	queue := &queueStub{}
	svc := newExportJobServiceForTest(t, store, &exportPapersStub{}, queue)

	resp, err := svc.CreateJob(context.Background(), "admin-1", CreateExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestExportJobServiceCreateJobRejectsUnknownFormat(t *testing.T) {
	svc := newExportJobServiceForTest(t, newExportJobStoreStub(), &exportPapersStub{}, &queueStub{})

	_, err := svc.CreateJob(context.Background(), "admin-1", CreateExportRequest{Format: "xlsx"})
	require.Error(t, err)
}

func TestExportJobServiceProcessAndDownload(t *testing.T) {
	store := newExportJobStoreStub()
	papers := &exportPapersStub{papers: []models.Paper{
		{ID: "p1", Title: "Algebra Final", Level: models.LevelHighSchool, Subject: "Mathematics", Year: 2024, AverageRating: 4.5, RatingsCount: 2, CreatedAt: time.Now()},
	}}
	queue := &queueStub{}
	svc := newExportJobServiceForTest(t, store, papers, queue)

	created, err := svc.CreateJob(context.Background(), "admin-1", CreateExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	require.NoError(t, svc.ProcessJob(context.Background(), jobs.Job{ID: created.ID}))

	status, err := svc.GetStatus(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)

	token := (*status.ResultURL)[strings.Index(*status.ResultURL, "token=")+len("token="):]
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
}

func TestExportJobServiceProcessScopesByLevel(t *testing.T) {
	store := newExportJobStoreStub()
	papers := &exportPapersStub{}
	svc := newExportJobServiceForTest(t, store, papers, &queueStub{})

	level := models.LevelCollege
	created, err := svc.CreateJob(context.Background(), "admin-1", CreateExportRequest{Format: models.ExportFormatPDF, Level: &level})
	require.NoError(t, err)

	require.NoError(t, svc.ProcessJob(context.Background(), jobs.Job{ID: created.ID}))
	assert.Equal(t, models.LevelCollege, papers.scope.Level)
}

func TestExportJobServiceRecoverPendingJobs(t *testing.T) {
	store := newExportJobStoreStub()
	queue := &queueStub{}
	svc := newExportJobServiceForTest(t, store, &exportPapersStub{}, queue)

	job := &models.ExportJob{Format: models.ExportFormatCSV, Status: models.ExportStatusQueued, CreatedBy: "admin-1"}
	require.NoError(t, store.Create(context.Background(), job))

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].ID)
}
