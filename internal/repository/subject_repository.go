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

// SubjectRepository provides persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

const subjectColumns = "id, code, name, created_at, updated_at"

// List returns subjects with optional search and pagination.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND (name ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "code": true, "created_at": true}
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", subjectColumns, base, sortBy, order, size, offset)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	return subjects, total, nil
}

// ListAll returns the whole subject catalog, used by the import matcher.
func (r *SubjectRepository) ListAll(ctx context.Context) ([]models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects ORDER BY name ASC", subjectColumns)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list all subjects: %w", err)
	}
	return subjects, nil
}

// FindByID loads a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns)
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByCode reports whether another subject already claims the code.
func (r *SubjectRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM subjects WHERE code = $1 AND ($2 = '' OR id <> $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, code, excludeID); err != nil {
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now()
	subject.CreatedAt = now
	subject.UpdatedAt = now

	const query = `INSERT INTO subjects (id, code, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, subject.ID, subject.Code, subject.Name, subject.CreatedAt, subject.UpdatedAt); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies an existing subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now()
	const query = `UPDATE subjects SET code = $2, name = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, subject.ID, subject.Code, subject.Name, subject.UpdatedAt); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
