package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

func strPtr(s string) *string { return &s }

func period(number int, typ models.PeriodType, start, end string, label *string) models.Period {
	return models.Period{Number: number, Type: typ, StartTime: start, EndTime: end, Label: label}
}

func TestDedupeSpecialOutranksRegular(t *testing.T) {
	// The lunch declaration wins even though the regular one starts earlier.
	periods := []models.Period{
		period(5, models.PeriodRegular, "11:00", "11:45", nil),
		period(5, models.PeriodLunch, "11:30", "12:30", strPtr("Ăn trưa")),
	}

	out := Dedupe(periods)
	require.Len(t, out, 1)
	assert.Equal(t, models.PeriodLunch, out[0].Type)
	assert.Equal(t, "11:30", out[0].StartTime)
}

func TestDedupeEarlierStartWinsOnEqualScore(t *testing.T) {
	periods := []models.Period{
		period(3, models.PeriodRegular, "09:15", "10:00", nil),
		period(3, models.PeriodRegular, "09:00", "09:45", nil),
	}

	out := Dedupe(periods)
	require.Len(t, out, 1)
	assert.Equal(t, "09:00", out[0].StartTime)
}

func TestDedupeLabelBreaksTie(t *testing.T) {
	periods := []models.Period{
		period(2, models.PeriodRegular, "07:45", "08:30", nil),
		period(2, models.PeriodRegular, "08:00", "08:45", strPtr("Tiết đôi")),
	}

	out := Dedupe(periods)
	require.Len(t, out, 1)
	assert.Equal(t, "08:00", out[0].StartTime)
}

func TestDedupeIdempotent(t *testing.T) {
	periods := []models.Period{
		period(1, models.PeriodRegular, "07:00", "07:45", nil),
		period(1, models.PeriodLunch, "11:00", "12:00", strPtr("Nghỉ trưa")),
		period(2, models.PeriodRegular, "07:45", "08:30", nil),
		period(3, models.PeriodSnack, "09:30", "09:45", nil),
	}

	once := Dedupe(periods)
	twice := Dedupe(once)
	assert.Equal(t, once, twice)
}

func TestBuildRowsMergeAndSortScenario(t *testing.T) {
	// Period 1 collapses to its lunch declaration, which then sorts after
	// period 2 because rows order by start time, not number.
	periods := []models.Period{
		period(1, models.PeriodRegular, "07:00", "07:45", nil),
		period(1, models.PeriodLunch, "11:00", "12:00", strPtr("Nghỉ trưa")),
		period(2, models.PeriodRegular, "07:45", "08:30", nil),
	}

	rows := BuildRows(periods, nil, 0)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "07:45", rows[0].Start)
	assert.Equal(t, models.PeriodRegular, rows[0].Type)
	assert.Equal(t, "Tiết 2", rows[0].Label)

	assert.Equal(t, 1, rows[1].Number)
	assert.Equal(t, "11:00", rows[1].Start)
	assert.Equal(t, models.PeriodLunch, rows[1].Type)
	assert.Equal(t, "Nghỉ trưa", rows[1].Label)
	assert.True(t, rows[1].Special())
}

func TestBuildRowsStartsNonDecreasing(t *testing.T) {
	periods := []models.Period{
		period(4, models.PeriodRegular, "10:00", "10:45", nil),
		period(1, models.PeriodRegular, "07:00", "07:45", nil),
		period(3, models.PeriodSnack, "09:30", "09:45", nil),
		period(2, models.PeriodRegular, "07:45", "08:30", nil),
		period(2, models.PeriodRegular, "08:00", "08:45", nil),
	}

	rows := BuildRows(periods, nil, 0)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].Start, rows[i].Start)
	}
}

func TestBuildRowsTypeLabelFallback(t *testing.T) {
	periods := []models.Period{
		period(6, models.PeriodNap, "12:30", "14:00", nil),
	}

	rows := BuildRows(periods, nil, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ngủ trưa", rows[0].Label)
	assert.Equal(t, "12:30 – 14:00", rows[0].Time)
}

func TestBuildRowsFallbackFromGridKeys(t *testing.T) {
	grid := models.TimetableGrid{
		"Monday":  {"1": nil, "5": &models.TimetableCell{}},
		"Tuesday": {"3": &models.TimetableCell{}},
	}

	rows := BuildRows(nil, grid, 0)
	require.Len(t, rows, 3)

	var numbers []int
	for _, r := range rows {
		numbers = append(numbers, r.Number)
		assert.Equal(t, models.PeriodRegular, r.Type)
	}
	assert.Equal(t, []int{1, 3, 5}, numbers)
}

func TestBuildRowsFallbackDefaultSequence(t *testing.T) {
	rows := BuildRows(nil, nil, 0)
	require.Len(t, rows, 10)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Number)
		assert.Equal(t, models.PeriodRegular, r.Type)
	}
	// Synthetic starts are index-based and keep the defensive sort stable.
	assert.Equal(t, "00:00", rows[0].Start)
	assert.Equal(t, "09:00", rows[9].Start)
}

func TestBuildRowsFallbackSpanConfigurable(t *testing.T) {
	rows := BuildRows(nil, nil, 4)
	require.Len(t, rows, 4)
	assert.Equal(t, "Tiết 4", rows[3].Label)
}

func TestGridCellNilSafety(t *testing.T) {
	var grid models.TimetableGrid
	assert.Nil(t, grid.Cell("Monday", "1"))

	grid = models.TimetableGrid{"Monday": {"1": {EntryID: "e1", Subject: models.Ref{ID: "s1"}}}}
	assert.Nil(t, grid.Cell("Tuesday", "1"))
	assert.Nil(t, grid.Cell("Monday", "2"))

	cell := grid.Cell("Monday", "1")
	require.NotNil(t, cell)
	assert.Equal(t, "s1", cell.Subject.ID)
	assert.False(t, cell.Subject.Expanded())
}
