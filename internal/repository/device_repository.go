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

// DeviceRepository provides persistence for school devices.
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository creates a new device repository.
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

const deviceColumns = "id, code, name, category, room, status, notes, created_at, updated_at"

// List returns devices with optional filtering and pagination.
func (r *DeviceRepository) List(ctx context.Context, filter models.DeviceFilter) ([]models.Device, int, error) {
	base := "FROM devices WHERE 1=1"
	var args []interface{}

	if filter.Category != "" {
		base += fmt.Sprintf(" AND category = $%d", len(args)+1)
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (name ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"code": true, "name": true, "category": true, "status": true, "created_at": true}
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", deviceColumns, base, sortBy, order, size, offset)
	var devices []models.Device
	if err := r.db.SelectContext(ctx, &devices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list devices: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count devices: %w", err)
	}

	return devices, total, nil
}

// FindByID loads a device by id.
func (r *DeviceRepository) FindByID(ctx context.Context, id string) (*models.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM devices WHERE id = $1", deviceColumns)
	var device models.Device
	if err := r.db.GetContext(ctx, &device, query, id); err != nil {
		return nil, err
	}
	return &device, nil
}

// ExistsByCode reports whether another device already claims the code.
func (r *DeviceRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM devices WHERE code = $1 AND ($2 = '' OR id <> $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, code, excludeID); err != nil {
		return false, fmt.Errorf("check device code: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new device.
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	const query = `INSERT INTO devices (id, code, name, category, room, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		device.ID, device.Code, device.Name, device.Category, device.Room,
		device.Status, device.Notes, device.CreatedAt, device.UpdatedAt); err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

// Update modifies an existing device.
func (r *DeviceRepository) Update(ctx context.Context, device *models.Device) error {
	device.UpdatedAt = time.Now()
	const query = `UPDATE devices SET code = $2, name = $3, category = $4, room = $5, status = $6, notes = $7, updated_at = $8 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		device.ID, device.Code, device.Name, device.Category, device.Room,
		device.Status, device.Notes, device.UpdatedAt); err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	return nil
}

// Delete removes a device.
func (r *DeviceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return nil
}
