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

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ExistsByCode(ctx context.Context, code, schoolYear, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

// CreateClassRequest captures fields for creating classes.
type CreateClassRequest struct {
	Code              string  `json:"code" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	GradeLevel        string  `json:"grade_level" validate:"required"`
	SchoolYear        string  `json:"school_year" validate:"required"`
	HomeroomTeacherID *string `json:"homeroom_teacher_id"`
}

// UpdateClassRequest modifies class fields.
type UpdateClassRequest struct {
	Code              string  `json:"code" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	GradeLevel        string  `json:"grade_level" validate:"required"`
	SchoolYear        string  `json:"school_year" validate:"required"`
	HomeroomTeacherID *string `json:"homeroom_teacher_id"`
}

// ClassService handles class domain workflows.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService creates a new class service.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated classes.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
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
	return classes, pagination, nil
}

// Get returns class by identifier.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create adds a new class ensuring the code is unique within its school year.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.ExistsByCode(ctx, req.Code, req.SchoolYear, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class code already exists in this school year")
	}

	class := models.Class{
		Code:              req.Code,
		Name:              strings.TrimSpace(req.Name),
		GradeLevel:        req.GradeLevel,
		SchoolYear:        req.SchoolYear,
		HomeroomTeacherID: req.HomeroomTeacherID,
	}
	if err := s.repo.Create(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return &class, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.ExistsByCode(ctx, req.Code, req.SchoolYear, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class code already exists in this school year")
	}

	class.Code = req.Code
	class.Name = strings.TrimSpace(req.Name)
	class.GradeLevel = req.GradeLevel
	class.SchoolYear = req.SchoolYear
	class.HomeroomTeacherID = req.HomeroomTeacherID
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}
