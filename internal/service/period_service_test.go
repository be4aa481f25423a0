package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

type periodRepoStub struct {
	periods []models.Period

	failDeleteIDs map[string]bool
	failUpdateIDs map[string]bool
	failCreateNum int
	listErr       error

	deleted []string
	updated []string
	created []models.Period
}

func (s *periodRepoStub) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.periods, nil
}

func (s *periodRepoStub) FindByID(ctx context.Context, id string) (*models.Period, error) {
	for _, p := range s.periods {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *periodRepoStub) Create(ctx context.Context, period *models.Period) error {
	if s.failCreateNum != 0 && period.Number == s.failCreateNum {
		return errors.New("insert failed")
	}
	period.ID = fmt.Sprintf("new-%d", period.Number)
	s.created = append(s.created, *period)
	return nil
}

func (s *periodRepoStub) Update(ctx context.Context, period *models.Period) error {
	if s.failUpdateIDs[period.ID] {
		return errors.New("update failed")
	}
	s.updated = append(s.updated, period.ID)
	return nil
}

func (s *periodRepoStub) Delete(ctx context.Context, id string) error {
	if s.failDeleteIDs[id] {
		return errors.New("delete failed")
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func storedPeriods() []models.Period {
	return []models.Period{
		{ID: "p1", SchoolID: "sch-1", SchoolYear: "2025-2026", Number: 1, StartTime: "07:00", EndTime: "07:45", Type: models.PeriodRegular},
		{ID: "p2", SchoolID: "sch-1", SchoolYear: "2025-2026", Number: 2, StartTime: "07:50", EndTime: "08:35", Type: models.PeriodRegular},
		{ID: "p3", SchoolID: "sch-1", SchoolYear: "2025-2026", Number: 0, StartTime: "11:30", EndTime: "13:00", Type: models.PeriodLunch},
	}
}

func diffInput(id string, number int, start, end, typ string) PeriodInput {
	return PeriodInput{ID: id, Number: number, StartTime: start, EndTime: end, Type: typ}
}

func TestApplyDiffCreatesUpdatesDeletes(t *testing.T) {
	repo := &periodRepoStub{periods: storedPeriods()}
	svc := NewPeriodService(repo, nil, nil)

	// p1 kept unchanged, p2 retimed, p3 dropped, one new period added.
	result, err := svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods: []PeriodInput{
			diffInput("p1", 1, "07:00", "07:45", "regular"),
			diffInput("p2", 2, "08:00", "08:45", "regular"),
			diffInput("", 3, "08:50", "09:35", "regular"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"p3"}, result.Deleted)
	assert.Equal(t, []string{"p2"}, result.Updated)
	assert.Equal(t, []string{"new-3"}, result.Created)
	assert.False(t, result.Partial())
	assert.Equal(t, []string{"p2"}, repo.updated, "unchanged periods must not be rewritten")
}

func TestApplyDiffSkipsUnchangedPeriods(t *testing.T) {
	repo := &periodRepoStub{periods: storedPeriods()}
	svc := NewPeriodService(repo, nil, nil)

	result, err := svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods: []PeriodInput{
			diffInput("p1", 1, "07:00", "07:45", "regular"),
			diffInput("p2", 2, "07:50", "08:35", "regular"),
			diffInput("p3", 0, "11:30", "13:00", "lunch"),
		},
	})
	require.NoError(t, err)

	assert.Empty(t, result.Deleted)
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Created)
	assert.Empty(t, repo.updated)
}

func TestApplyDiffDeletesAreBestEffort(t *testing.T) {
	repo := &periodRepoStub{
		periods:       storedPeriods(),
		failDeleteIDs: map[string]bool{"p1": true},
	}
	svc := NewPeriodService(repo, nil, nil)

	// Desired state keeps only p2: p1 and p3 are deleted, p1 fails.
	result, err := svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods: []PeriodInput{
			diffInput("p2", 2, "07:50", "08:35", "regular"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"p3"}, result.Deleted, "one failed delete must not block the others")
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "p1", result.Failed[0].ID)
	assert.True(t, result.Partial())
}

func TestApplyDiffUpdateFailureAbortsRemainingPhases(t *testing.T) {
	repo := &periodRepoStub{
		periods:       storedPeriods(),
		failUpdateIDs: map[string]bool{"p1": true},
	}
	svc := NewPeriodService(repo, nil, nil)

	result, err := svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods: []PeriodInput{
			diffInput("p1", 1, "07:05", "07:50", "regular"),
			diffInput("p2", 2, "08:00", "08:45", "regular"),
			diffInput("p3", 0, "11:30", "13:00", "lunch"),
			diffInput("", 4, "09:40", "10:25", "regular"),
		},
	})
	require.NoError(t, err)

	// p1 fails first; p2's update and the new period's create never run.
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Created)
	assert.Empty(t, repo.created)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "p1", result.Failed[0].ID)
}

func TestApplyDiffCreateFailureStopsRemainingCreates(t *testing.T) {
	repo := &periodRepoStub{
		periods:       storedPeriods(),
		failCreateNum: 5,
	}
	svc := NewPeriodService(repo, nil, nil)

	result, err := svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods: []PeriodInput{
			diffInput("p1", 1, "07:00", "07:45", "regular"),
			diffInput("p2", 2, "07:50", "08:35", "regular"),
			diffInput("p3", 0, "11:30", "13:00", "lunch"),
			diffInput("", 4, "09:40", "10:25", "regular"),
			diffInput("", 5, "10:30", "11:15", "regular"),
			diffInput("", 6, "13:10", "13:55", "regular"),
		},
	})
	require.NoError(t, err)

	// Period 4 lands, 5 fails, 6 is never attempted. Nothing rolls back.
	assert.Equal(t, []string{"new-4"}, result.Created)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 5, result.Failed[0].Number)
	assert.Len(t, repo.created, 1)
}

func TestApplyDiffRejectsUnknownUpdateID(t *testing.T) {
	repo := &periodRepoStub{periods: storedPeriods()}
	svc := NewPeriodService(repo, nil, nil)

	result, err := svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods: []PeriodInput{
			diffInput("p1", 1, "07:00", "07:45", "regular"),
			diffInput("p2", 2, "07:50", "08:35", "regular"),
			diffInput("p3", 0, "11:30", "13:00", "lunch"),
			diffInput("ghost", 9, "14:00", "14:45", "regular"),
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "ghost", result.Failed[0].ID)
}

func TestApplyDiffValidatesPayload(t *testing.T) {
	svc := NewPeriodService(&periodRepoStub{}, nil, nil)

	_, err := svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolYear: "2025-2026",
		Periods: []PeriodInput{
			diffInput("", 1, "07:00", "07:45", "regular"),
		},
	})
	assert.Error(t, err, "missing school id must fail validation")

	_, err = svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods: []PeriodInput{
			diffInput("", 1, "07:00", "07:45", "brunch"),
		},
	})
	assert.Error(t, err, "unknown period type must fail validation")
}

func TestApplyDiffListErrorIsFatal(t *testing.T) {
	svc := NewPeriodService(&periodRepoStub{listErr: errors.New("db down")}, nil, nil)

	_, err := svc.ApplyDiff(context.Background(), ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods:    []PeriodInput{diffInput("", 1, "07:00", "07:45", "regular")},
	})
	assert.Error(t, err)
}
