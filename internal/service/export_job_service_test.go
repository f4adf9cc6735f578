package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/stellarfs-api/internal/dto"
	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/repository"
	appErrors "github.com/noah-isme/stellarfs-api/pkg/errors"
	"github.com/noah-isme/stellarfs-api/pkg/jobs"
)

type exportJobRepoStub struct {
	mu   sync.Mutex
	jobs map[string]*models.ExportJob
	seq  int
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", r.seq)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	clone := *job
	r.jobs[job.ID] = &clone
	return nil
}

func (r *exportJobRepoStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (r *exportJobRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		at := *params.FinishedAt
		job.FinishedAt = &at
	}
	return nil
}

func (r *exportJobRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *exportJobRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ExportJob
	for _, job := range r.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *exportJobRepoStub) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type generatorStub struct {
	err error
}

func (g generatorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &ExportResult{URL: "/api/v1/exports/download/tok"}, nil
}

func newExportJobServiceForTest(t *testing.T) (*ExportJobService, *exportJobRepoStub, *queueStub, *ExportService) {
	t.Helper()
	repo := newExportJobRepoStub()
	queue := &queueStub{}
	exporter := newExportServiceForTest(t, fixtureFiles())
	return NewExportJobService(repo, queue, exporter, nil, zap.NewNop()), repo, queue, exporter
}

func exportRequest() dto.ExportRequest {
	return dto.ExportRequest{
		Kind:   models.ResourceFiles,
		Format: models.ExportFormatCSV,
		Params: models.ViewParameters{Tab: models.TabMine},
	}
}

func TestExportJobServiceCreateJob(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), exportRequest(), "u-1", "Ada")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, jobs.Job{ID: resp.ID, Type: exportJobType}, queue.jobs[0])

	stored := repo.jobs[resp.ID]
	assert.Equal(t, "u-1", stored.CreatedBy)
	assert.Equal(t, "Ada", stored.Params.CurrentUser)
	assert.Equal(t, models.TabMine, stored.Params.View.Tab)
}

func TestExportJobServiceCreateJobValidation(t *testing.T) {
	svc, _, queue, _ := newExportJobServiceForTest(t)
	ctx := context.Background()

	req := exportRequest()
	req.Format = "xml"
	_, err := svc.CreateJob(ctx, req, "u-1", "Ada")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = exportRequest()
	req.Kind = models.ResourceNodes
	_, err = svc.CreateJob(ctx, req, "u-1", "Ada")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "unsupported export kind", appErr.Message)
	assert.Empty(t, queue.jobs)
}

func TestExportJobServiceEnqueueFailureMarksJobFailed(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)
	queue.err = errors.New("queue full")

	_, err := svc.CreateJob(context.Background(), exportRequest(), "u-1", "Ada")
	require.Error(t, err)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
		assert.NotNil(t, job.FinishedAt)
	}
}

func TestExportJobServiceEndToEnd(t *testing.T) {
	svc, repo, queue, exporter := newExportJobServiceForTest(t)
	metrics := NewMetricsService()
	worker := NewExportWorker(repo, exporter, metrics, 3, zap.NewNop())
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, exportRequest(), "u-1", "Ada")
	require.NoError(t, err)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))

	status, err := svc.GetStatus(ctx, resp.ID, "u-1", false)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)
	assert.Nil(t, status.Error)

	token := extractToken(*status.ResultURL)
	download, err := svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "notes.txt")
	assert.NotContains(t, string(body), "photo.png")
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.Equal(t, uint64(1), metrics.Snapshot().ExportsFinished)
}

func TestExportJobServiceGetStatusAccess(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, exportRequest(), "u-1", "Ada")
	require.NoError(t, err)

	_, err = svc.GetStatus(ctx, resp.ID, "u-2", false)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GetStatus(ctx, resp.ID, "u-2", true)
	assert.NoError(t, err)

	_, err = svc.GetStatus(ctx, "missing", "u-1", true)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceResolveDownloadRejects(t *testing.T) {
	svc, repo, queue, exporter := newExportJobServiceForTest(t)
	worker := NewExportWorker(repo, exporter, nil, 3, nil)
	ctx := context.Background()

	_, err := svc.ResolveDownload(ctx, "garbage")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	resp, err := svc.CreateJob(ctx, exportRequest(), "u-1", "Ada")
	require.NoError(t, err)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))
	token := extractToken(*repo.jobs[resp.ID].ResultURL)

	other, _, err := exporter.signer.Generate(resp.ID, "elsewhere.csv")
	require.NoError(t, err)
	_, err = svc.ResolveDownload(ctx, other)
	assert.Equal(t, "token mismatch", appErrors.FromError(err).Message)

	_, relPath, _, err := exporter.ParseToken(token, false)
	require.NoError(t, err)
	require.NoError(t, exporter.Delete(relPath))
	_, err = svc.ResolveDownload(ctx, token)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrGone.Code, appErr.Code)
	assert.Equal(t, http.StatusGone, appErr.Status)
	assert.Equal(t, "export file expired", appErr.Message)
}

func TestExportWorkerRetriesThenFails(t *testing.T) {
	repo := newExportJobRepoStub()
	metrics := NewMetricsService()
	worker := NewExportWorker(repo, generatorStub{err: errors.New("render failed")}, metrics, 2, nil)
	ctx := context.Background()
	job := &models.ExportJob{Kind: models.ResourceFiles, Status: models.ExportStatusQueued}
	require.NoError(t, repo.Create(ctx, job))

	err := worker.Handle(ctx, jobs.Job{ID: job.ID, Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, repo.jobs[job.ID].Status)
	assert.Equal(t, 0, repo.jobs[job.ID].Progress)

	err = worker.Handle(ctx, jobs.Job{ID: job.ID, Attempt: 2})
	require.Error(t, err)
	stored := repo.jobs[job.ID]
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "render failed", *stored.ErrorMessage)
	assert.Equal(t, uint64(1), metrics.Snapshot().ExportsFailed)
}

func TestExportJobServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.ExportJob{ID: "queued", Status: models.ExportStatusQueued}))
	require.NoError(t, repo.Create(ctx, &models.ExportJob{ID: "done", Status: models.ExportStatusFinished}))

	svc.RecoverPendingJobs(ctx)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "queued", queue.jobs[0].ID)
}

func TestExportJobServiceCleanupExpired(t *testing.T) {
	svc, repo, queue, exporter := newExportJobServiceForTest(t)
	worker := NewExportWorker(repo, exporter, nil, 3, nil)
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, exportRequest(), "u-1", "Ada")
	require.NoError(t, err)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))
	freshReq := exportRequest()
	freshReq.Params.Search = "notes"
	fresh, err := svc.CreateJob(ctx, freshReq, "u-1", "Ada")
	require.NoError(t, err)
	require.NoError(t, worker.Handle(ctx, queue.jobs[1]))

	old := time.Now().Add(-48 * time.Hour)
	repo.jobs[resp.ID].FinishedAt = &old
	_, relPath, _, err := exporter.ParseToken(extractToken(*repo.jobs[resp.ID].ResultURL), false)
	require.NoError(t, err)

	removed, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, repo.jobs, resp.ID)
	assert.Contains(t, repo.jobs, fresh.ID)

	_, err = exporter.Open(relPath)
	assert.Error(t, err)

	_, err = svc.ResolveDownload(ctx, extractToken(*repo.jobs[fresh.ID].ResultURL))
	assert.NoError(t, err)
}
