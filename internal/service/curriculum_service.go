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

type curriculumRepository interface {
	List(ctx context.Context, filter models.CurriculumFilter) ([]models.Curriculum, int, error)
	FindByID(ctx context.Context, id string) (*models.Curriculum, error)
	Create(ctx context.Context, curriculum *models.Curriculum) error
	Update(ctx context.Context, curriculum *models.Curriculum) error
	Delete(ctx context.Context, id string) error
	ListSubjects(ctx context.Context, curriculumID string) ([]models.CurriculumSubject, error)
	AddSubject(ctx context.Context, link *models.CurriculumSubject) error
	RemoveSubject(ctx context.Context, curriculumID, subjectID string) error
}

// CreateCurriculumRequest captures fields for creating curricula.
type CreateCurriculumRequest struct {
	Name        string  `json:"name" validate:"required"`
	GradeLevel  string  `json:"grade_level" validate:"required"`
	SchoolYear  string  `json:"school_year" validate:"required"`
	Description *string `json:"description"`
}

// UpdateCurriculumRequest modifies curriculum fields.
type UpdateCurriculumRequest struct {
	Name        string  `json:"name" validate:"required"`
	GradeLevel  string  `json:"grade_level" validate:"required"`
	SchoolYear  string  `json:"school_year" validate:"required"`
	Description *string `json:"description"`
}

// AddCurriculumSubjectRequest links a subject with its weekly quota.
type AddCurriculumSubjectRequest struct {
	SubjectID     string `json:"subject_id" validate:"required,uuid"`
	WeeklyPeriods int    `json:"weekly_periods" validate:"required,min=1,max=20"`
}

// CurriculumService handles curriculum workflows.
type CurriculumService struct {
	repo      curriculumRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCurriculumService creates a new curriculum service.
func NewCurriculumService(repo curriculumRepository, validate *validator.Validate, logger *zap.Logger) *CurriculumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated curricula.
func (s *CurriculumService) List(ctx context.Context, filter models.CurriculumFilter) ([]models.Curriculum, *models.Pagination, error) {
	curricula, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list curricula")
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
	return curricula, pagination, nil
}

// Get returns curriculum by identifier.
func (s *CurriculumService) Get(ctx context.Context, id string) (*models.Curriculum, error) {
	curriculum, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "curriculum not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	return curriculum, nil
}

// Create adds a new curriculum.
func (s *CurriculumService) Create(ctx context.Context, req CreateCurriculumRequest) (*models.Curriculum, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum payload")
	}

	curriculum := models.Curriculum{
		Name:        strings.TrimSpace(req.Name),
		GradeLevel:  req.GradeLevel,
		SchoolYear:  req.SchoolYear,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, &curriculum); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create curriculum")
	}
	return &curriculum, nil
}

// Update modifies an existing curriculum.
func (s *CurriculumService) Update(ctx context.Context, id string, req UpdateCurriculumRequest) (*models.Curriculum, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum payload")
	}

	curriculum, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	curriculum.Name = strings.TrimSpace(req.Name)
	curriculum.GradeLevel = req.GradeLevel
	curriculum.SchoolYear = req.SchoolYear
	curriculum.Description = req.Description
	if err := s.repo.Update(ctx, curriculum); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update curriculum")
	}
	return curriculum, nil
}

// Delete removes a curriculum along with its subject links.
func (s *CurriculumService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete curriculum")
	}
	return nil
}

// Subjects returns the subjects linked to a curriculum.
func (s *CurriculumService) Subjects(ctx context.Context, curriculumID string) ([]models.CurriculumSubject, error) {
	if _, err := s.Get(ctx, curriculumID); err != nil {
		return nil, err
	}
	links, err := s.repo.ListSubjects(ctx, curriculumID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list curriculum subjects")
	}
	return links, nil
}

// AddSubject links a subject into a curriculum.
func (s *CurriculumService) AddSubject(ctx context.Context, curriculumID string, req AddCurriculumSubjectRequest) (*models.CurriculumSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum subject payload")
	}
	if _, err := s.Get(ctx, curriculumID); err != nil {
		return nil, err
	}

	link := models.CurriculumSubject{
		CurriculumID:  curriculumID,
		SubjectID:     req.SubjectID,
		WeeklyPeriods: req.WeeklyPeriods,
	}
	if err := s.repo.AddSubject(ctx, &link); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add curriculum subject")
	}
	return &link, nil
}

// RemoveSubject unlinks a subject from a curriculum.
func (s *CurriculumService) RemoveSubject(ctx context.Context, curriculumID, subjectID string) error {
	if _, err := s.Get(ctx, curriculumID); err != nil {
		return err
	}
	if err := s.repo.RemoveSubject(ctx, curriculumID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove curriculum subject")
	}
	return nil
}
