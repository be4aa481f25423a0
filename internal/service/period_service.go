package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openedu-vn/school-admin-api/internal/models"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
)

type periodRepository interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error)
	FindByID(ctx context.Context, id string) (*models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	Delete(ctx context.Context, id string) error
}

// PeriodInput is one desired period in a diff request. An empty ID marks a
// period to create; a non-empty ID updates the stored period with that ID.
type PeriodInput struct {
	ID        string  `json:"id"`
	Number    int     `json:"number" validate:"min=0,max=30"`
	StartTime string  `json:"start_time" validate:"required,len=5"`
	EndTime   string  `json:"end_time" validate:"required,len=5"`
	Type      string  `json:"type" validate:"required,oneof=regular morning lunch nap snack dismissal"`
	Label     *string `json:"label"`
}

// ApplyDiffRequest carries the full desired period set for one school year.
// Stored periods absent from the set are deleted.
type ApplyDiffRequest struct {
	SchoolID   string        `json:"school_id" validate:"required"`
	SchoolYear string        `json:"school_year" validate:"required"`
	Periods    []PeriodInput `json:"periods" validate:"dive"`
}

// DiffItemError records a single item that failed during a diff apply.
type DiffItemError struct {
	ID     string `json:"id,omitempty"`
	Number int    `json:"number,omitempty"`
	Reason string `json:"reason"`
}

// ApplyDiffResult reports what a diff apply actually changed. Deletes are
// best-effort per item; creates and updates run sequentially and stop at the
// first failure without rolling back earlier phases, so callers should
// re-fetch after a partial result.
type ApplyDiffResult struct {
	Deleted []string        `json:"deleted"`
	Updated []string        `json:"updated"`
	Created []string        `json:"created"`
	Failed  []DiffItemError `json:"failed"`
}

// Partial reports whether any item failed to apply.
func (r ApplyDiffResult) Partial() bool {
	return len(r.Failed) > 0
}

// PeriodService handles the period definitions of a school year, including
// the bulk diff-apply flow used by the period-management dialog.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService creates a new period service.
func NewPeriodService(repo periodRepository, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// List returns the periods declared for a school year, duplicates included.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error) {
	periods, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, nil
}

// Get returns period by identifier.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

// ApplyDiff reconciles the stored periods of a school year against the
// desired set. Three phases run in order: deletes, updates, creates.
// Deletes are isolated per item (one failure never blocks the rest);
// updates and creates abort the remaining items of their phase on the
// first failure. Nothing already applied is rolled back.
func (s *PeriodService) ApplyDiff(ctx context.Context, req ApplyDiffRequest) (*ApplyDiffResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period diff payload")
	}

	current, err := s.repo.List(ctx, models.PeriodFilter{SchoolID: req.SchoolID, SchoolYear: req.SchoolYear})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current periods")
	}

	desiredByID := make(map[string]PeriodInput, len(req.Periods))
	var creates []PeriodInput
	for _, in := range req.Periods {
		if in.ID == "" {
			creates = append(creates, in)
			continue
		}
		desiredByID[in.ID] = in
	}

	currentByID := make(map[string]models.Period, len(current))
	var deletes []models.Period
	for _, p := range current {
		currentByID[p.ID] = p
		if _, keep := desiredByID[p.ID]; !keep {
			deletes = append(deletes, p)
		}
	}

	result := &ApplyDiffResult{
		Deleted: []string{},
		Updated: []string{},
		Created: []string{},
		Failed:  []DiffItemError{},
	}

	for _, p := range deletes {
		if err := s.repo.Delete(ctx, p.ID); err != nil {
			s.logger.Warn("period delete failed",
				zap.String("period_id", p.ID),
				zap.Int("number", p.Number),
				zap.Error(err))
			result.Failed = append(result.Failed, DiffItemError{ID: p.ID, Number: p.Number, Reason: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, p.ID)
	}

	updateFailed := false
	for _, in := range req.Periods {
		if in.ID == "" {
			continue
		}
		stored, ok := currentByID[in.ID]
		if !ok {
			result.Failed = append(result.Failed, DiffItemError{ID: in.ID, Number: in.Number, Reason: "period not found in this school year"})
			updateFailed = true
			break
		}
		if !periodChanged(stored, in) {
			continue
		}
		period := stored
		period.Number = in.Number
		period.StartTime = in.StartTime
		period.EndTime = in.EndTime
		period.Type = models.PeriodType(in.Type)
		period.Label = in.Label
		if err := s.repo.Update(ctx, &period); err != nil {
			s.logger.Warn("period update failed, aborting remaining updates",
				zap.String("period_id", in.ID),
				zap.Error(err))
			result.Failed = append(result.Failed, DiffItemError{ID: in.ID, Number: in.Number, Reason: err.Error()})
			updateFailed = true
			break
		}
		result.Updated = append(result.Updated, in.ID)
	}

	// A failed update aborts the create phase as well; the dialog flow
	// treats updates and creates as one sequential batch.
	if !updateFailed {
		for _, in := range creates {
			period := models.Period{
				SchoolID:   req.SchoolID,
				SchoolYear: req.SchoolYear,
				Number:     in.Number,
				StartTime:  in.StartTime,
				EndTime:    in.EndTime,
				Type:       models.PeriodType(in.Type),
				Label:      in.Label,
			}
			if err := s.repo.Create(ctx, &period); err != nil {
				s.logger.Warn("period create failed, aborting remaining creates",
					zap.Int("number", in.Number),
					zap.Error(err))
				result.Failed = append(result.Failed, DiffItemError{Number: in.Number, Reason: err.Error()})
				break
			}
			result.Created = append(result.Created, period.ID)
		}
	}

	return result, nil
}

func periodChanged(stored models.Period, in PeriodInput) bool {
	if stored.Number != in.Number ||
		stored.StartTime != in.StartTime ||
		stored.EndTime != in.EndTime ||
		stored.Type != models.PeriodType(in.Type) {
		return true
	}
	storedLabel := ""
	if stored.Label != nil {
		storedLabel = *stored.Label
	}
	inLabel := ""
	if in.Label != nil {
		inLabel = *in.Label
	}
	return storedLabel != inLabel
}
