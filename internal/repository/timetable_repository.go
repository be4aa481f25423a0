package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

// TimetableRepository provides persistence for timetable entries and the
// grid projection consumed by the row builder.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

type gridRow struct {
	models.TimetableEntry
	SubjectName *string `db:"subject_name"`
}

// Grid loads all entries of one class for a school year as the sparse
// day × period mapping. Subject names are joined in when available; teacher
// refs stay unexpanded.
func (r *TimetableRepository) Grid(ctx context.Context, schoolYear, classID string) (models.TimetableGrid, error) {
	const query = `SELECT e.id, e.school_year, e.class_id, e.day_of_week, e.period_number,
			e.subject_id, e.teacher_ids, e.room, e.created_at, e.updated_at,
			s.name AS subject_name
		FROM timetable_entries e
		LEFT JOIN subjects s ON s.id = e.subject_id
		WHERE e.school_year = $1 AND e.class_id = $2`

	var rows []gridRow
	if err := r.db.SelectContext(ctx, &rows, query, schoolYear, classID); err != nil {
		return nil, fmt.Errorf("load timetable grid: %w", err)
	}

	grid := make(models.TimetableGrid)
	for _, row := range rows {
		day := grid[row.DayOfWeek]
		if day == nil {
			day = make(map[string]*models.TimetableCell)
			grid[row.DayOfWeek] = day
		}

		cell := &models.TimetableCell{
			EntryID: row.ID,
			Subject: models.Ref{ID: row.SubjectID},
			Room:    row.Room,
		}
		if row.SubjectName != nil {
			cell.Subject.Name = *row.SubjectName
		}
		for _, tid := range row.TeacherIDs {
			cell.Teachers = append(cell.Teachers, models.Ref{ID: tid})
		}
		day[strconv.Itoa(row.PeriodNumber)] = cell
	}

	return grid, nil
}

// UpsertEntry writes one grid cell, replacing a previous occupant of the
// same (school year, class, day, period) slot.
func (r *TimetableRepository) UpsertEntry(ctx context.Context, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.TeacherIDs == nil {
		entry.TeacherIDs = pq.StringArray{}
	}

	const query = `INSERT INTO timetable_entries (id, school_year, class_id, day_of_week, period_number, subject_id, teacher_ids, room, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (school_year, class_id, day_of_week, period_number)
		DO UPDATE SET subject_id = EXCLUDED.subject_id, teacher_ids = EXCLUDED.teacher_ids, room = EXCLUDED.room, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SchoolYear, entry.ClassID, entry.DayOfWeek, entry.PeriodNumber,
		entry.SubjectID, entry.TeacherIDs, entry.Room, entry.CreatedAt, entry.UpdatedAt); err != nil {
		return fmt.Errorf("upsert timetable entry: %w", err)
	}
	return nil
}

// DeleteEntry removes one grid cell.
func (r *TimetableRepository) DeleteEntry(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	return nil
}

// BulkImport stores imported records in one transaction, resolving class
// codes to ids. Records referencing a class code unknown for the school year
// are skipped; the count of stored records is returned.
func (r *TimetableRepository) BulkImport(ctx context.Context, schoolYear string, records []models.TimetableImportRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	classIDs, err := r.classIDsByCode(ctx, schoolYear)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO timetable_entries (id, school_year, class_id, day_of_week, period_number, subject_id, teacher_ids, room, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (school_year, class_id, day_of_week, period_number)
		DO UPDATE SET subject_id = EXCLUDED.subject_id, teacher_ids = EXCLUDED.teacher_ids, room = EXCLUDED.room, updated_at = EXCLUDED.updated_at`

	stored := 0
	now := time.Now()
	for _, rec := range records {
		classID, known := classIDs[rec.ClassCode]
		if !known {
			continue
		}
		if _, err := tx.ExecContext(ctx, query,
			uuid.NewString(), schoolYear, classID, rec.DayOfWeek, rec.PeriodNumber,
			rec.SubjectID, pq.StringArray(rec.TeacherIDs), rec.Room, now, now); err != nil {
			return 0, fmt.Errorf("import record %s/%d/%s: %w", rec.DayOfWeek, rec.PeriodNumber, rec.ClassCode, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk import: %w", err)
	}
	return stored, nil
}

func (r *TimetableRepository) classIDsByCode(ctx context.Context, schoolYear string) (map[string]string, error) {
	const query = `SELECT id, code FROM classes WHERE school_year = $1`
	var rows []struct {
		ID   string `db:"id"`
		Code string `db:"code"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, schoolYear); err != nil {
		return nil, fmt.Errorf("load class codes: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Code] = row.ID
	}
	return out, nil
}
