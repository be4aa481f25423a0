package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

// PeriodRepository provides persistence for declared periods. Period numbers
// are deliberately not unique at the storage level; deduplication happens at
// read time in the row builder.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository creates a new period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

const periodColumns = "id, school_id, school_year, number, start_time, end_time, type, label, created_at, updated_at"

// List returns the periods declared for a school and school year, ordered by
// start time.
func (r *PeriodRepository) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error) {
	base := "FROM periods WHERE 1=1"
	var args []interface{}

	if filter.SchoolID != "" {
		base += fmt.Sprintf(" AND school_id = $%d", len(args)+1)
		args = append(args, filter.SchoolID)
	}
	if filter.SchoolYear != "" {
		base += fmt.Sprintf(" AND school_year = $%d", len(args)+1)
		args = append(args, filter.SchoolYear)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_time ASC, number ASC", periodColumns, base)
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindByID loads a period by id.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	query := fmt.Sprintf("SELECT %s FROM periods WHERE id = $1", periodColumns)
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create inserts a new period declaration.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now()
	period.CreatedAt = now
	period.UpdatedAt = now

	const query = `INSERT INTO periods (id, school_id, school_year, number, start_time, end_time, type, label, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		period.ID, period.SchoolID, period.SchoolYear, period.Number,
		period.StartTime, period.EndTime, period.Type, period.Label,
		period.CreatedAt, period.UpdatedAt); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// Update overwrites a period declaration in place; no history is retained.
func (r *PeriodRepository) Update(ctx context.Context, period *models.Period) error {
	period.UpdatedAt = time.Now()
	const query = `UPDATE periods SET number = $2, start_time = $3, end_time = $4, type = $5, label = $6, updated_at = $7 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		period.ID, period.Number, period.StartTime, period.EndTime,
		period.Type, period.Label, period.UpdatedAt); err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return nil
}

// Delete removes a period declaration.
func (r *PeriodRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM periods WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete period: %w", err)
	}
	return nil
}
