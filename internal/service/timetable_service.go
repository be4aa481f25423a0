package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/timetable"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
)

type timetableRepository interface {
	Grid(ctx context.Context, schoolYear, classID string) (models.TimetableGrid, error)
	UpsertEntry(ctx context.Context, entry *models.TimetableEntry) error
	DeleteEntry(ctx context.Context, id string) error
	BulkImport(ctx context.Context, schoolYear string, records []models.TimetableImportRecord) (int, error)
}

type gridCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// TimetableCacheConfig tunes caching of grid and row payloads.
type TimetableCacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	FallbackSpan int
}

// TimetableService serves the rendered timetable: the raw day/period grid,
// the normalized display rows, and single-cell edits.
type TimetableService struct {
	repo    timetableRepository
	periods periodRepository
	cache   gridCache
	cfg     TimetableCacheConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewTimetableService creates a new timetable service. Cache and metrics may
// be nil when the respective concern is disabled.
func NewTimetableService(repo timetableRepository, periods periodRepository, cache gridCache, cfg TimetableCacheConfig, metrics *MetricsService, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &TimetableService{repo: repo, periods: periods, cache: cache, cfg: cfg, metrics: metrics, logger: logger}
}

// RowsResult pairs the normalized display rows with the grid they index into.
type RowsResult struct {
	Rows []timetable.Row      `json:"rows"`
	Grid models.TimetableGrid `json:"grid"`
}

// Grid returns the stored day/period grid of one class.
func (s *TimetableService) Grid(ctx context.Context, schoolYear, classID string) (models.TimetableGrid, error) {
	grid, err := s.repo.Grid(ctx, schoolYear, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable grid")
	}
	return grid, nil
}

// Rows returns the time-ordered display rows for one class, merging duplicate
// period declarations and falling back to grid keys (then a synthetic span)
// when no periods are declared. Results are cached per (year, class).
func (s *TimetableService) Rows(ctx context.Context, schoolID, schoolYear, classID string) (*RowsResult, error) {
	key := rowsCacheKey(schoolYear, classID)
	if s.cacheReady() {
		var cached RowsResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	grid, err := s.Grid(ctx, schoolYear, classID)
	if err != nil {
		return nil, err
	}
	periods, err := s.periods.List(ctx, models.PeriodFilter{SchoolID: schoolID, SchoolYear: schoolYear})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}

	result := &RowsResult{
		Rows: timetable.BuildRows(periods, grid, s.cfg.FallbackSpan),
		Grid: grid,
	}

	if s.cacheReady() {
		if err := s.cache.Set(ctx, key, result, s.cfg.TTL); err != nil {
			s.logger.Warn("failed to cache timetable rows", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// UpsertEntry stores one grid cell and invalidates the cached rows of the
// affected school year.
func (s *TimetableService) UpsertEntry(ctx context.Context, entry *models.TimetableEntry) error {
	if entry.DayOfWeek == "" || entry.ClassID == "" || entry.SubjectID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "day_of_week, class_id and subject_id are required")
	}
	if !validWeekday(entry.DayOfWeek) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown day_of_week")
	}
	if entry.TeacherIDs == nil {
		entry.TeacherIDs = []string{}
	}
	if err := s.repo.UpsertEntry(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable entry")
	}
	s.invalidate(ctx, entry.SchoolYear)
	return nil
}

// DeleteEntry removes one grid cell.
func (s *TimetableService) DeleteEntry(ctx context.Context, id, schoolYear string) error {
	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entry")
	}
	s.invalidate(ctx, schoolYear)
	return nil
}

// BulkImport persists importer records and invalidates every cached row set
// of the school year. It satisfies the importer's sink interface.
func (s *TimetableService) BulkImport(ctx context.Context, schoolYear string, records []models.TimetableImportRecord) (int, error) {
	stored, err := s.repo.BulkImport(ctx, schoolYear, records)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import timetable records")
	}
	s.invalidate(ctx, schoolYear)
	return stored, nil
}

func (s *TimetableService) cacheReady() bool {
	return s.cfg.Enabled && s.cache != nil
}

func (s *TimetableService) invalidate(ctx context.Context, schoolYear string) {
	if !s.cacheReady() {
		return
	}
	pattern := fmt.Sprintf("timetable:rows:%s:*", schoolYear)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("pattern", pattern), zap.Error(err))
	}
}

func rowsCacheKey(schoolYear, classID string) string {
	return fmt.Sprintf("timetable:rows:%s:%s", schoolYear, classID)
}

func validWeekday(day string) bool {
	for _, d := range models.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}
