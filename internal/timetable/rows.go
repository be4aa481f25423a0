// Package timetable builds the renderable row structure of a class timetable
// from declared periods and the stored day × period grid.
package timetable

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

const defaultFallbackSpan = 10

// Row is the derived display unit the grid renderer iterates. Special rows
// span the full week; regular rows get one cell per weekday looked up in the
// grid by Number.
type Row struct {
	Number int               `json:"number"`
	Label  string            `json:"label"`
	Time   string            `json:"time,omitempty"`
	Type   models.PeriodType `json:"type"`
	Start  string            `json:"start"`
}

// Special reports whether the row renders full-width without per-day cells.
func (r Row) Special() bool {
	return r.Type.Special()
}

// GridKey returns the period-number key used to address grid cells.
func (r Row) GridKey() string {
	return strconv.Itoa(r.Number)
}

// score ranks duplicate declarations of the same period number. A special
// type outweighs an explicit label, so a slot declared both as "lunch" and as
// a leftover regular placeholder collapses to the lunch declaration.
func score(p models.Period) int {
	s := 0
	if p.Type.Special() {
		s += 2
	}
	if p.HasLabel() {
		s++
	}
	return s
}

// Dedupe collapses duplicate period numbers to a single winning declaration.
// Higher score wins; on equal score the lexicographically smaller start time
// wins ("HH:MM" zero-padded strings order correctly). The result is sorted by
// start time ascending, then by period number.
func Dedupe(periods []models.Period) []models.Period {
	byNumber := make(map[int]models.Period, len(periods))
	for _, p := range periods {
		ex, claimed := byNumber[p.Number]
		if !claimed {
			byNumber[p.Number] = p
			continue
		}
		ps, exs := score(p), score(ex)
		if ps > exs || (ps == exs && p.StartTime < ex.StartTime) {
			byNumber[p.Number] = p
		}
	}

	out := make([]models.Period, 0, len(byNumber))
	for _, p := range byNumber {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// BuildRows produces the ordered display rows for a timetable. When no
// periods are declared, the period numbers observed in the grid are used; an
// empty grid falls back to a synthetic 1..fallbackSpan sequence. The routine
// never fails: absent data degrades to the synthetic path.
func BuildRows(periods []models.Period, grid models.TimetableGrid, fallbackSpan int) []Row {
	if fallbackSpan <= 0 {
		fallbackSpan = defaultFallbackSpan
	}

	var rows []Row
	if len(periods) > 0 {
		for _, p := range Dedupe(periods) {
			rows = append(rows, Row{
				Number: p.Number,
				Label:  labelFor(p),
				Time:   fmt.Sprintf("%s – %s", p.StartTime, p.EndTime),
				Type:   p.Type,
				Start:  p.StartTime,
			})
		}
	} else {
		rows = fallbackRows(grid, fallbackSpan)
	}

	// Dedupe and the fallback already order rows; keep the sort as the
	// output contract rather than an artifact of the construction path.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Start < rows[j].Start
	})
	return rows
}

func labelFor(p models.Period) string {
	if p.HasLabel() {
		return *p.Label
	}
	if p.Type.Special() {
		return p.Type.DisplayLabel()
	}
	return fmt.Sprintf("Tiết %d", p.Number)
}

// fallbackRows synthesizes regular rows from the grid's period keys, or from
// 1..span when the grid is empty too. Start values are index-based fakes that
// exist only to keep the final sort stable.
func fallbackRows(grid models.TimetableGrid, span int) []Row {
	seen := make(map[int]struct{})
	for _, day := range grid {
		for key := range day {
			if n, err := strconv.Atoi(key); err == nil {
				seen[n] = struct{}{}
			}
		}
	}

	numbers := make([]int, 0, len(seen))
	for n := range seen {
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		for n := 1; n <= span; n++ {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)

	rows := make([]Row, 0, len(numbers))
	for i, n := range numbers {
		rows = append(rows, Row{
			Number: n,
			Label:  fmt.Sprintf("Tiết %d", n),
			Type:   models.PeriodRegular,
			Start:  fmt.Sprintf("%02d:00", i),
		})
	}
	return rows
}
