package importer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

func sheetBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i := range rows {
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func declaredPeriods(numbers ...int) []models.Period {
	var out []models.Period
	for _, n := range numbers {
		out = append(out, models.Period{
			Number:    n,
			Type:      models.PeriodRegular,
			StartTime: fmt.Sprintf("%02d:00", 6+n),
			EndTime:   fmt.Sprintf("%02d:45", 6+n),
		})
	}
	return out
}

func TestParseWeekdayCarryForward(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1", "10A2"},
		{"Thứ Hai", 1, "Toán", "Văn"},
		{"", 2, "Văn", "Toán"},
	})

	records, classes, stats, err := NewParser(zap.NewNop()).Parse(bytes.NewReader(data), declaredPeriods(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"10A1", "10A2"}, classes)
	require.Len(t, records, 4)
	for _, rec := range records {
		assert.Equal(t, models.Monday, rec.DayOfWeek)
	}
	assert.Equal(t, 2, stats.RowsSeen)
	assert.Zero(t, stats.SkippedNoDay)
}

func TestParseUnmappableWeekdaySkipped(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Ngày lễ", 1, "Toán"},
		{"Thứ Ba", 1, "Toán"},
	})

	records, _, stats, err := NewParser(zap.NewNop()).Parse(bytes.NewReader(data), declaredPeriods(1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.Tuesday, records[0].DayOfWeek)
	assert.Equal(t, 1, stats.SkippedNoDay)
}

func TestParseSpecialPeriodExcluded(t *testing.T) {
	periods := []models.Period{
		{Number: 0, Type: models.PeriodLunch, StartTime: "11:00", EndTime: "12:00"},
		{Number: 1, Type: models.PeriodRegular, StartTime: "07:00", EndTime: "07:45"},
	}
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Thứ Hai", 0, "Toán"},
		{"", 1, "Toán"},
	})

	records, _, stats, err := NewParser(zap.NewNop()).Parse(bytes.NewReader(data), periods)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].PeriodNumber)
	assert.Equal(t, 1, stats.SkippedSpecial)
}

func TestParseUndeclaredPeriodSkipped(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Thứ Hai", 9, "Toán"},
	})

	records, _, stats, err := NewParser(zap.NewNop()).Parse(bytes.NewReader(data), declaredPeriods(1))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 1, stats.SkippedUndeclared)
	assert.Zero(t, stats.SkippedSpecial)
}

func TestParsePlaceholderCellsIgnored(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1", "10A2", "10A3", "10A4"},
		{"Thứ Hai", 1, "undefined", "null", "(Trống)", "Toán"},
	})

	records, _, _, err := NewParser(zap.NewNop()).Parse(bytes.NewReader(data), declaredPeriods(1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10A4", records[0].ClassCode)
	assert.Equal(t, "Toán", records[0].SubjectText)
}

func TestParsePlaceholderClassCodesIgnored(t *testing.T) {
	// Export tools write "undefined"/"null" into header cells they consider
	// empty; columns under them carry no class.
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "undefined", "null", "10A1"},
		{"Thứ Hai", 1, "Toán", "Văn", "Sử"},
	})

	records, _, _, err := NewParser(zap.NewNop()).Parse(bytes.NewReader(data), declaredPeriods(1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10A1", records[0].ClassCode)
	assert.Equal(t, "Sử", records[0].SubjectText)
}

func TestParseTruncatesBeyondHeader(t *testing.T) {
	// Data rows wider than the header are cut at the class-column bound.
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Thứ Hai", 1, "Toán", "Văn", "Sử"},
	})

	records, _, _, err := NewParser(zap.NewNop()).Parse(bytes.NewReader(data), declaredPeriods(1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10A1", records[0].ClassCode)
}

func TestParseMissingPeriodSkipped(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Thứ Hai", "", "Toán"},
		{"", "x", "Văn"},
	})

	records, _, stats, err := NewParser(zap.NewNop()).Parse(bytes.NewReader(data), declaredPeriods(1))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 2, stats.SkippedNoPeriod)
}

func TestParseRejectsUnreadableFile(t *testing.T) {
	_, _, _, err := NewParser(zap.NewNop()).Parse(bytes.NewReader([]byte("not a workbook")), declaredPeriods(1))
	require.Error(t, err)
}
