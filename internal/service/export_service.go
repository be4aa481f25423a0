package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/timetable"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
	"github.com/openedu-vn/school-admin-api/pkg/export"
	"github.com/openedu-vn/school-admin-api/pkg/jobs"
)

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type rowsProvider interface {
	Rows(ctx context.Context, schoolID, schoolYear, classID string) (*RowsResult, error)
}

type exportStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(jobID, relPath string) (token string, expiresAt time.Time, err error)
	Verify(token string) (jobID, relPath string, err error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ExportJobType names the queue job kind produced by this service.
const ExportJobType = "timetable_export"

// Vietnamese column headers keyed by grid weekday.
var weekdayDisplay = map[string]string{
	models.Monday:    "Thứ Hai",
	models.Tuesday:   "Thứ Ba",
	models.Wednesday: "Thứ Tư",
	models.Thursday:  "Thứ Năm",
	models.Friday:    "Thứ Sáu",
	models.Saturday:  "Thứ Bảy",
	models.Sunday:    "Chủ Nhật",
}

// ExportRequest asks for one class timetable in one format.
type ExportRequest struct {
	SchoolID   string
	SchoolYear string
	ClassID    string
	Format     models.ExportFormat
}

type exportPayload struct {
	JobID      string
	SchoolID   string
	SchoolYear string
	ClassID    string
	ClassCode  string
	ClassName  string
	Format     models.ExportFormat
}

// ExportService renders class timetables to downloadable CSV/PDF files. The
// render runs on a background queue; clients poll the job and follow the
// signed download URL once it completes.
type ExportService struct {
	repo      exportJobRepository
	classes   classRepository
	rows      rowsProvider
	store     exportStore
	signer    downloadSigner
	queue     jobEnqueuer
	renderers map[models.ExportFormat]export.Renderer
	logger    *zap.Logger
}

// NewExportService creates a new export service with CSV and PDF renderers.
func NewExportService(repo exportJobRepository, classes classRepository, rows rowsProvider, store exportStore, signer downloadSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:    repo,
		classes: classes,
		rows:    rows,
		store:   store,
		signer:  signer,
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportFormatCSV: export.NewCSVRenderer(),
			models.ExportFormatPDF: export.NewPDFRenderer(),
		},
		logger: logger,
	}
}

// SetQueue wires the background queue after construction; the queue handler
// and the service reference each other, so wiring happens in two steps.
func (s *ExportService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// StartCleanup boots a goroutine that periodically removes export files
// whose download tokens have expired. It stops when ctx is cancelled.
func (s *ExportService) StartCleanup(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purgeExpired(ttl)
			}
		}
	}()
}

func (s *ExportService) purgeExpired(ttl time.Duration) {
	deleted, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired export files removed", zap.Int("files", len(deleted)))
	}
}

// Request creates a pending export job and schedules its render.
func (s *ExportService) Request(ctx context.Context, req ExportRequest) (*models.ExportJob, error) {
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if req.SchoolYear == "" || req.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school_year and class_id are required")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue not configured")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	job := models.ExportJob{
		SchoolYear: req.SchoolYear,
		ClassID:    req.ClassID,
		Format:     req.Format,
		Status:     models.ExportJobPending,
	}
	if err := s.repo.Create(ctx, &job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	payload := exportPayload{
		JobID:      job.ID,
		SchoolID:   req.SchoolID,
		SchoolYear: req.SchoolYear,
		ClassID:    req.ClassID,
		ClassCode:  class.Code,
		ClassName:  class.Name,
		Format:     req.Format,
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType, Payload: payload}); err != nil {
		reason := "failed to schedule export"
		if markErr := s.repo.MarkFailed(ctx, job.ID, reason); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, reason)
	}
	return &job, nil
}

// Get returns the current state of an export job.
func (s *ExportService) Get(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// HandleJob is the queue handler: it renders the timetable, stores the file
// and attaches a signed download URL to the job.
func (s *ExportService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		// Malformed payloads cannot succeed on retry.
		s.logger.Error("export job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	if err := s.repo.MarkProcessing(ctx, payload.JobID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := s.render(ctx, payload); err != nil {
		if markErr := s.repo.MarkFailed(ctx, payload.JobID, err.Error()); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", payload.JobID), zap.Error(markErr))
		}
		return err
	}
	return nil
}

func (s *ExportService) render(ctx context.Context, payload exportPayload) error {
	renderer, ok := s.renderers[payload.Format]
	if !ok {
		return fmt.Errorf("no renderer for format %q", payload.Format)
	}

	result, err := s.rows.Rows(ctx, payload.SchoolID, payload.SchoolYear, payload.ClassID)
	if err != nil {
		return fmt.Errorf("load timetable: %w", err)
	}

	table := buildExportTable(result.Rows, result.Grid, payload.ClassName, payload.SchoolYear)
	data, err := renderer.Render(table)
	if err != nil {
		return fmt.Errorf("render %s: %w", payload.Format, err)
	}

	relPath := fmt.Sprintf("%s/%s-%s.%s", payload.SchoolYear, payload.ClassCode, payload.JobID, renderer.Extension())
	if _, err := s.store.Save(relPath, data); err != nil {
		return fmt.Errorf("store export: %w", err)
	}

	token, expiresAt, err := s.signer.Sign(payload.JobID, relPath)
	if err != nil {
		_ = s.store.Delete(relPath)
		return fmt.Errorf("sign download url: %w", err)
	}
	downloadURL := "/api/v1/exports/download/" + token

	if err := s.repo.MarkCompleted(ctx, payload.JobID, relPath, downloadURL, expiresAt); err != nil {
		// The job stays failed, so the stored file would never be served.
		_ = s.store.Delete(relPath)
		return fmt.Errorf("mark completed: %w", err)
	}
	s.logger.Info("export completed",
		zap.String("job_id", payload.JobID),
		zap.String("class", payload.ClassCode),
		zap.String("format", string(payload.Format)))
	return nil
}

// Download validates a signed token and opens the underlying file.
func (s *ExportService) Download(ctx context.Context, token string) (*os.File, *models.ExportJob, error) {
	jobID, relPath, err := s.signer.Verify(token)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}

	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != models.ExportJobCompleted {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "export is not ready")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}
	return file, job, nil
}

// ContentType returns the MIME type served for a format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	if r, ok := s.renderers[format]; ok {
		return r.ContentType()
	}
	return "application/octet-stream"
}

// buildExportTable lays the normalized rows out as one table: the period
// column first, then one column per weekday. Special periods repeat their
// label across every weekday column.
func buildExportTable(rows []timetable.Row, grid models.TimetableGrid, className, schoolYear string) export.Table {
	headers := make([]string, 0, len(models.Weekdays)+1)
	headers = append(headers, "Tiết")
	for _, day := range models.Weekdays {
		headers = append(headers, weekdayDisplay[day])
	}

	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, 0, len(headers))
		label := row.Label
		if row.Time != "" {
			label = fmt.Sprintf("%s (%s)", row.Label, row.Time)
		}
		record = append(record, label)
		for _, day := range models.Weekdays {
			if row.Special() {
				record = append(record, row.Label)
				continue
			}
			cell := grid.Cell(day, row.GridKey())
			if cell == nil {
				record = append(record, "")
				continue
			}
			name := cell.Subject.Name
			if name == "" {
				name = cell.Subject.ID
			}
			record = append(record, name)
		}
		body = append(body, record)
	}

	return export.Table{
		Title:   fmt.Sprintf("Thời khóa biểu %s - %s", className, schoolYear),
		Headers: headers,
		Rows:    body,
	}
}
