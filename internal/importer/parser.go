// Package importer turns an uploaded day/period/class spreadsheet into
// normalized timetable records, resolving free-text subject names against the
// subject catalog.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/timetable"
)

// weekdayVN maps the Vietnamese weekday names used in timetable sheets to
// grid keys. Lookup is done on the lower-cased, trimmed cell text.
var weekdayVN = map[string]string{
	"thứ hai":  models.Monday,
	"thứ ba":   models.Tuesday,
	"thứ tư":   models.Wednesday,
	"thứ năm":  models.Thursday,
	"thứ sáu":  models.Friday,
	"thứ bảy":  models.Saturday,
	"chủ nhật": models.Sunday,
}

// RawRecord is one occupied cell lifted out of the sheet before subject
// resolution.
type RawRecord struct {
	DayOfWeek    string
	PeriodNumber int
	ClassCode    string
	SubjectText  string
}

// ParseStats counts rows the parser skipped, split by reason. Policy skips
// (special periods) are kept apart from data errors.
type ParseStats struct {
	RowsSeen          int `json:"rows_seen"`
	SkippedNoDay      int `json:"skipped_no_day"`
	SkippedNoPeriod   int `json:"skipped_no_period"`
	SkippedUndeclared int `json:"skipped_undeclared_period"`
	SkippedSpecial    int `json:"skipped_special_period"`
}

// Parser reads timetable workbooks. The expected layout: row 0 is a header
// whose cells from column index 2 onward are class codes; column 0 holds the
// Vietnamese weekday (blank on merged-cell continuation rows), column 1 the
// period number, and columns ≥2 the subject text per class.
type Parser struct {
	logger *zap.Logger
}

// NewParser constructs a Parser.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse reads the first sheet and produces raw records. Row-level problems
// are skipped with a warning and counted; only an unreadable workbook is an
// error. Returned class codes keep their column positions, including blanks,
// so data columns beyond the header are truncated rather than guessed at.
func (p *Parser) Parse(r io.Reader, periods []models.Period) ([]RawRecord, []string, ParseStats, error) {
	var stats ParseStats

	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, stats, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, stats, fmt.Errorf("workbook has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, nil, stats, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, stats, nil
	}

	classes := classCodes(rows[0])
	typeByNumber := make(map[int]models.PeriodType)
	for _, def := range timetable.Dedupe(periods) {
		typeByNumber[def.Number] = def.Type
	}

	var records []RawRecord
	carriedDay := ""
	for i, row := range rows[1:] {
		stats.RowsSeen++
		rowNum := i + 2

		if raw := cellAt(row, 0); raw != "" {
			carriedDay = raw
		}
		if carriedDay == "" {
			stats.SkippedNoDay++
			continue
		}
		day, ok := weekdayVN[strings.ToLower(carriedDay)]
		if !ok {
			stats.SkippedNoDay++
			p.logger.Warn("unmappable weekday, skipping row",
				zap.Int("row", rowNum), zap.String("value", carriedDay))
			continue
		}

		number, err := strconv.Atoi(cellAt(row, 1))
		if err != nil {
			stats.SkippedNoPeriod++
			continue
		}

		typ, declared := typeByNumber[number]
		if !declared {
			stats.SkippedUndeclared++
			p.logger.Warn("undeclared period number, skipping row",
				zap.Int("row", rowNum), zap.Int("period", number))
			continue
		}
		if typ.Special() {
			stats.SkippedSpecial++
			continue
		}

		limit := len(row)
		if max := len(classes) + 2; limit > max {
			limit = max
		}
		for j := 2; j < limit; j++ {
			subject := strings.TrimSpace(row[j])
			classCode := strings.TrimSpace(classes[j-2])
			if !usableCell(subject) || placeholderText(classCode) {
				continue
			}
			records = append(records, RawRecord{
				DayOfWeek:    day,
				PeriodNumber: number,
				ClassCode:    classCode,
				SubjectText:  subject,
			})
		}
	}

	return records, classes, stats, nil
}

func classCodes(header []string) []string {
	if len(header) <= 2 {
		return nil
	}
	return header[2:]
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// placeholderText reports literals that export tools write into cells they
// consider empty.
func placeholderText(text string) bool {
	return text == "" || text == "undefined" || text == "null"
}

// usableCell rejects placeholder text plus the "trống" marker that
// spreadsheets commonly carry in empty timetable slots.
func usableCell(text string) bool {
	if placeholderText(text) {
		return false
	}
	return !strings.Contains(strings.ToLower(text), "trống")
}
