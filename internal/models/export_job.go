package models

import "time"

// ExportFormat enumerates supported timetable export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

// ExportJobStatus tracks the lifecycle of an asynchronous export.
type ExportJobStatus string

const (
	ExportJobPending    ExportJobStatus = "pending"
	ExportJobProcessing ExportJobStatus = "processing"
	ExportJobCompleted  ExportJobStatus = "completed"
	ExportJobFailed     ExportJobStatus = "failed"
)

// ExportJob records one requested timetable export and its artifact.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	SchoolYear   string          `db:"school_year" json:"school_year"`
	ClassID      string          `db:"class_id" json:"class_id"`
	Format       ExportFormat    `db:"format" json:"format"`
	Status       ExportJobStatus `db:"status" json:"status"`
	FilePath     *string         `db:"file_path" json:"-"`
	DownloadURL  *string         `db:"download_url" json:"download_url,omitempty"`
	FailedReason *string         `db:"failed_reason" json:"failed_reason,omitempty"`
	ExpiresAt    *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
