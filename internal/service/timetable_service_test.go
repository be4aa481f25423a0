package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

type timetableRepoStub struct {
	grid      models.TimetableGrid
	gridErr   error
	gridCalls int

	upserted []models.TimetableEntry
	deleted  []string
	imported []models.TimetableImportRecord
}

func (s *timetableRepoStub) Grid(ctx context.Context, schoolYear, classID string) (models.TimetableGrid, error) {
	s.gridCalls++
	if s.gridErr != nil {
		return nil, s.gridErr
	}
	return s.grid, nil
}

func (s *timetableRepoStub) UpsertEntry(ctx context.Context, entry *models.TimetableEntry) error {
	s.upserted = append(s.upserted, *entry)
	return nil
}

func (s *timetableRepoStub) DeleteEntry(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *timetableRepoStub) BulkImport(ctx context.Context, schoolYear string, records []models.TimetableImportRecord) (int, error) {
	s.imported = append(s.imported, records...)
	return len(records), nil
}

type cacheStub struct {
	data     map[string][]byte
	getErr   error
	setCalls int
	patterns []string
}

func newCacheStub() *cacheStub {
	return &cacheStub{data: map[string][]byte{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.setCalls++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	for k := range c.data {
		delete(c.data, k)
	}
	return nil
}

func sampleGrid() models.TimetableGrid {
	return models.TimetableGrid{
		models.Monday: {
			"1": &models.TimetableCell{EntryID: "e1", Subject: models.Ref{ID: "s1", Name: "Toán"}, Room: "Homeroom"},
		},
	}
}

func timetablePeriods() []models.Period {
	return []models.Period{
		{ID: "p1", Number: 1, StartTime: "07:00", EndTime: "07:45", Type: models.PeriodRegular},
		{ID: "p2", Number: 2, StartTime: "07:50", EndTime: "08:35", Type: models.PeriodRegular},
	}
}

func TestRowsBuildsFromPeriodsAndGrid(t *testing.T) {
	repo := &timetableRepoStub{grid: sampleGrid()}
	periods := &periodRepoStub{periods: timetablePeriods()}
	svc := NewTimetableService(repo, periods, nil, TimetableCacheConfig{}, nil, nil)

	result, err := svc.Rows(context.Background(), "sch-1", "2025-2026", "cls-1")
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Tiết 1", result.Rows[0].Label)
	assert.Equal(t, "Toán", result.Grid.Cell(models.Monday, "1").Subject.Name)
}

func TestRowsServedFromCacheOnSecondCall(t *testing.T) {
	repo := &timetableRepoStub{grid: sampleGrid()}
	periods := &periodRepoStub{periods: timetablePeriods()}
	cache := newCacheStub()
	svc := NewTimetableService(repo, periods, cache, TimetableCacheConfig{Enabled: true, TTL: time.Minute}, nil, nil)

	first, err := svc.Rows(context.Background(), "sch-1", "2025-2026", "cls-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gridCalls)
	assert.Equal(t, 1, cache.setCalls)

	second, err := svc.Rows(context.Background(), "sch-1", "2025-2026", "cls-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gridCalls, "second call must hit the cache")
	assert.Equal(t, len(first.Rows), len(second.Rows))
}

func TestRowsCacheFailureFallsThrough(t *testing.T) {
	repo := &timetableRepoStub{grid: sampleGrid()}
	periods := &periodRepoStub{periods: timetablePeriods()}
	cache := newCacheStub()
	cache.getErr = errors.New("redis down")
	svc := NewTimetableService(repo, periods, cache, TimetableCacheConfig{Enabled: true, TTL: time.Minute}, nil, nil)

	result, err := svc.Rows(context.Background(), "sch-1", "2025-2026", "cls-1")
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, 1, repo.gridCalls)
}

func TestUpsertEntryInvalidatesCache(t *testing.T) {
	repo := &timetableRepoStub{grid: sampleGrid()}
	cache := newCacheStub()
	svc := NewTimetableService(repo, &periodRepoStub{}, cache, TimetableCacheConfig{Enabled: true, TTL: time.Minute}, nil, nil)

	err := svc.UpsertEntry(context.Background(), &models.TimetableEntry{
		SchoolYear:   "2025-2026",
		ClassID:      "cls-1",
		DayOfWeek:    models.Tuesday,
		PeriodNumber: 3,
		SubjectID:    "s2",
	})
	require.NoError(t, err)
	require.Len(t, repo.upserted, 1)
	assert.NotNil(t, repo.upserted[0].TeacherIDs)
	require.Len(t, cache.patterns, 1)
	assert.Equal(t, "timetable:rows:2025-2026:*", cache.patterns[0])
}

func TestUpsertEntryRejectsUnknownWeekday(t *testing.T) {
	svc := NewTimetableService(&timetableRepoStub{}, &periodRepoStub{}, nil, TimetableCacheConfig{}, nil, nil)

	err := svc.UpsertEntry(context.Background(), &models.TimetableEntry{
		SchoolYear: "2025-2026",
		ClassID:    "cls-1",
		DayOfWeek:  "Thứ Tám",
		SubjectID:  "s1",
	})
	assert.Error(t, err)
}

func TestBulkImportInvalidatesYearCache(t *testing.T) {
	repo := &timetableRepoStub{}
	cache := newCacheStub()
	svc := NewTimetableService(repo, &periodRepoStub{}, cache, TimetableCacheConfig{Enabled: true, TTL: time.Minute}, nil, nil)

	stored, err := svc.BulkImport(context.Background(), "2025-2026", []models.TimetableImportRecord{
		{DayOfWeek: models.Monday, PeriodNumber: 1, ClassCode: "10A1", SubjectID: "s1", TeacherIDs: []string{}, Room: "Homeroom"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	require.Len(t, cache.patterns, 1)
	assert.Contains(t, cache.patterns[0], "2025-2026")
}

func TestRowsRecordsCacheHitAndMissMetrics(t *testing.T) {
	repo := &timetableRepoStub{grid: sampleGrid()}
	periods := &periodRepoStub{periods: timetablePeriods()}
	cache := newCacheStub()
	metrics := NewMetricsService()
	svc := NewTimetableService(repo, periods, cache, TimetableCacheConfig{Enabled: true, TTL: time.Minute}, metrics, nil)

	_, err := svc.Rows(context.Background(), "sch-1", "2025-2026", "cls-1")
	require.NoError(t, err)
	_, err = svc.Rows(context.Background(), "sch-1", "2025-2026", "cls-1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "grid_cache_misses_total 1")
	assert.Contains(t, body, "grid_cache_hits_total 1")
}
