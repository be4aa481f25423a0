package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

// ExportJobRepository provides persistence for timetable export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository creates a new export job repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

const exportJobColumns = "id, school_year, class_id, format, status, file_path, download_url, failed_reason, expires_at, created_at, updated_at"

// Create inserts a new pending export job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportJobPending
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	const query = `INSERT INTO export_jobs (id, school_year, class_id, format, status, file_path, download_url, failed_reason, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		job.ID, job.SchoolYear, job.ClassID, job.Format, job.Status,
		job.FilePath, job.DownloadURL, job.FailedReason, job.ExpiresAt,
		job.CreatedAt, job.UpdatedAt); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID loads an export job by id.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := fmt.Sprintf("SELECT %s FROM export_jobs WHERE id = $1", exportJobColumns)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing transitions a job to the processing state.
func (r *ExportJobRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.ExportJobProcessing, nil)
}

// MarkCompleted records the artifact location and download URL.
func (r *ExportJobRepository) MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, download_url = $4, expires_at = $5, failed_reason = NULL, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportJobCompleted, filePath, downloadURL, expiresAt, time.Now()); err != nil {
		return fmt.Errorf("complete export job: %w", err)
	}
	return nil
}

// MarkFailed stores the failure reason.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.setStatus(ctx, id, models.ExportJobFailed, &reason)
}

func (r *ExportJobRepository) setStatus(ctx context.Context, id string, status models.ExportJobStatus, reason *string) error {
	const query = `UPDATE export_jobs SET status = $2, failed_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, reason, time.Now()); err != nil {
		return fmt.Errorf("update export job status: %w", err)
	}
	return nil
}
