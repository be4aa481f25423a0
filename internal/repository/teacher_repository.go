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

// TeacherRepository provides persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = "id, staff_code, email, full_name, phone, expertise, active, created_at, updated_at"

// List returns teachers with optional filtering and pagination.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		base += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"full_name": true, "email": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "full_name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", teacherColumns, base, sortBy, order, size, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// FindByID loads a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByEmail reports whether another teacher already claims the email.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM teachers WHERE email = $1 AND ($2 = '' OR id <> $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, staff_code, email, full_name, phone, expertise, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		teacher.ID, teacher.StaffCode, teacher.Email, teacher.FullName,
		teacher.Phone, teacher.Expertise, teacher.Active, teacher.CreatedAt, teacher.UpdatedAt); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now()
	const query = `UPDATE teachers SET staff_code = $2, email = $3, full_name = $4, phone = $5, expertise = $6, active = $7, updated_at = $8 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		teacher.ID, teacher.StaffCode, teacher.Email, teacher.FullName,
		teacher.Phone, teacher.Expertise, teacher.Active, teacher.UpdatedAt); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Deactivate marks a teacher inactive instead of deleting the row.
func (r *TeacherRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE teachers SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now()); err != nil {
		return fmt.Errorf("deactivate teacher: %w", err)
	}
	return nil
}
