package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

// CurriculumRepository provides persistence for curricula and their subject links.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates a new curriculum repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

const curriculumColumns = "id, name, grade_level, school_year, description, created_at, updated_at"

// List returns curricula with optional filtering and pagination.
func (r *CurriculumRepository) List(ctx context.Context, filter models.CurriculumFilter) ([]models.Curriculum, int, error) {
	base := "FROM curricula WHERE 1=1"
	var args []interface{}

	if filter.GradeLevel != "" {
		base += fmt.Sprintf(" AND grade_level = $%d", len(args)+1)
		args = append(args, filter.GradeLevel)
	}
	if filter.SchoolYear != "" {
		base += fmt.Sprintf(" AND school_year = $%d", len(args)+1)
		args = append(args, filter.SchoolYear)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "grade_level": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", curriculumColumns, base, sortBy, order, size, offset)
	var curricula []models.Curriculum
	if err := r.db.SelectContext(ctx, &curricula, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list curricula: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count curricula: %w", err)
	}

	return curricula, total, nil
}

// FindByID loads a curriculum by id.
func (r *CurriculumRepository) FindByID(ctx context.Context, id string) (*models.Curriculum, error) {
	query := fmt.Sprintf("SELECT %s FROM curricula WHERE id = $1", curriculumColumns)
	var curriculum models.Curriculum
	if err := r.db.GetContext(ctx, &curriculum, query, id); err != nil {
		return nil, err
	}
	return &curriculum, nil
}

// Create inserts a new curriculum.
func (r *CurriculumRepository) Create(ctx context.Context, curriculum *models.Curriculum) error {
	if curriculum.ID == "" {
		curriculum.ID = uuid.NewString()
	}
	now := time.Now()
	curriculum.CreatedAt = now
	curriculum.UpdatedAt = now

	const query = `INSERT INTO curricula (id, name, grade_level, school_year, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		curriculum.ID, curriculum.Name, curriculum.GradeLevel, curriculum.SchoolYear,
		curriculum.Description, curriculum.CreatedAt, curriculum.UpdatedAt); err != nil {
		return fmt.Errorf("create curriculum: %w", err)
	}
	return nil
}

// Update modifies an existing curriculum.
func (r *CurriculumRepository) Update(ctx context.Context, curriculum *models.Curriculum) error {
	curriculum.UpdatedAt = time.Now()
	const query = `UPDATE curricula SET name = $2, grade_level = $3, school_year = $4, description = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		curriculum.ID, curriculum.Name, curriculum.GradeLevel, curriculum.SchoolYear,
		curriculum.Description, curriculum.UpdatedAt); err != nil {
		return fmt.Errorf("update curriculum: %w", err)
	}
	return nil
}

// Delete removes a curriculum and its subject links.
func (r *CurriculumRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete curriculum: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM curriculum_subjects WHERE curriculum_id = $1`, id); err != nil {
		return fmt.Errorf("delete curriculum subjects: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM curricula WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete curriculum: %w", err)
	}
	return tx.Commit()
}

// ListSubjects returns the subject links of a curriculum.
func (r *CurriculumRepository) ListSubjects(ctx context.Context, curriculumID string) ([]models.CurriculumSubject, error) {
	const query = `SELECT id, curriculum_id, subject_id, weekly_periods, created_at FROM curriculum_subjects WHERE curriculum_id = $1 ORDER BY created_at ASC`
	var links []models.CurriculumSubject
	if err := r.db.SelectContext(ctx, &links, query, curriculumID); err != nil {
		return nil, fmt.Errorf("list curriculum subjects: %w", err)
	}
	return links, nil
}

// AddSubject links a subject into the curriculum.
func (r *CurriculumRepository) AddSubject(ctx context.Context, link *models.CurriculumSubject) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	link.CreatedAt = time.Now()
	const query = `INSERT INTO curriculum_subjects (id, curriculum_id, subject_id, weekly_periods, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (curriculum_id, subject_id) DO UPDATE SET weekly_periods = EXCLUDED.weekly_periods`
	if _, err := r.db.ExecContext(ctx, query, link.ID, link.CurriculumID, link.SubjectID, link.WeeklyPeriods, link.CreatedAt); err != nil {
		return fmt.Errorf("add curriculum subject: %w", err)
	}
	return nil
}

// RemoveSubject unlinks a subject from the curriculum.
func (r *CurriculumRepository) RemoveSubject(ctx context.Context, curriculumID, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM curriculum_subjects WHERE curriculum_id = $1 AND subject_id = $2`, curriculumID, subjectID); err != nil {
		return fmt.Errorf("remove curriculum subject: %w", err)
	}
	return nil
}
