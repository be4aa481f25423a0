package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openedu-vn/school-admin-api/internal/models"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
)

type deviceRepository interface {
	List(ctx context.Context, filter models.DeviceFilter) ([]models.Device, int, error)
	FindByID(ctx context.Context, id string) (*models.Device, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, device *models.Device) error
	Update(ctx context.Context, device *models.Device) error
	Delete(ctx context.Context, id string) error
}

// CreateDeviceRequest captures fields for registering devices.
type CreateDeviceRequest struct {
	Code     string  `json:"code" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Room     *string `json:"room"`
	Status   string  `json:"status" validate:"omitempty,oneof=available in_use maintenance retired"`
	Notes    *string `json:"notes"`
}

// UpdateDeviceRequest modifies device fields.
type UpdateDeviceRequest struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Room     *string `json:"room"`
	Status   string  `json:"status" validate:"required,oneof=available in_use maintenance retired"`
	Notes    *string `json:"notes"`
}

// DeviceService handles device inventory workflows.
type DeviceService struct {
	repo      deviceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDeviceService creates a new device service.
func NewDeviceService(repo deviceRepository, validate *validator.Validate, logger *zap.Logger) *DeviceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated devices.
func (s *DeviceService) List(ctx context.Context, filter models.DeviceFilter) ([]models.Device, *models.Pagination, error) {
	devices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list devices")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return devices, pagination, nil
}

// Get returns device by identifier.
func (s *DeviceService) Get(ctx context.Context, id string) (*models.Device, error) {
	device, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "device not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device")
	}
	return device, nil
}

// Create registers a new device.
func (s *DeviceService) Create(ctx context.Context, req CreateDeviceRequest) (*models.Device, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid device payload")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check device code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "device code already exists")
	}

	status := models.DeviceStatus(req.Status)
	if status == "" {
		status = models.DeviceAvailable
	}
	device := models.Device{
		Code:     req.Code,
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		Room:     req.Room,
		Status:   status,
		Notes:    req.Notes,
	}
	if err := s.repo.Create(ctx, &device); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create device")
	}
	return &device, nil
}

// Update modifies an existing device. The code is immutable after creation.
func (s *DeviceService) Update(ctx context.Context, id string, req UpdateDeviceRequest) (*models.Device, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid device payload")
	}

	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	device.Name = strings.TrimSpace(req.Name)
	device.Category = req.Category
	device.Room = req.Room
	device.Status = models.DeviceStatus(req.Status)
	device.Notes = req.Notes
	if err := s.repo.Update(ctx, device); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update device")
	}
	return device, nil
}

// Delete removes a device from the inventory.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete device")
	}
	return nil
}
