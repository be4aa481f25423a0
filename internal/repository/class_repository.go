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

// ClassRepository provides persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = "id, code, name, grade_level, school_year, homeroom_teacher_id, created_at, updated_at"

// List returns classes with optional filtering and pagination.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := "FROM classes WHERE 1=1"
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
		base += fmt.Sprintf(" AND (name ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"code": true, "name": true, "grade_level": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "code"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classColumns, base, sortBy, order, size, offset)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	return classes, total, nil
}

// FindByID loads a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ExistsByCode reports whether another class in the same school year claims the code.
func (r *ClassRepository) ExistsByCode(ctx context.Context, code, schoolYear, excludeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE code = $1 AND school_year = $2 AND ($3 = '' OR id <> $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, code, schoolYear, excludeID); err != nil {
		return false, fmt.Errorf("check class code: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now()
	class.CreatedAt = now
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, code, name, grade_level, school_year, homeroom_teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		class.ID, class.Code, class.Name, class.GradeLevel, class.SchoolYear,
		class.HomeroomTeacherID, class.CreatedAt, class.UpdatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now()
	const query = `UPDATE classes SET code = $2, name = $3, grade_level = $4, school_year = $5, homeroom_teacher_id = $6, updated_at = $7 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		class.ID, class.Code, class.Name, class.GradeLevel, class.SchoolYear,
		class.HomeroomTeacherID, class.UpdatedAt); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
