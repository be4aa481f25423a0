package models

import (
	"time"

	"github.com/lib/pq"
)

// Weekday keys used across the timetable grid and the importer.
const (
	Monday    = "Monday"
	Tuesday   = "Tuesday"
	Wednesday = "Wednesday"
	Thursday  = "Thursday"
	Friday    = "Friday"
	Saturday  = "Saturday"
	Sunday    = "Sunday"
)

// Weekdays lists grid columns in display order.
var Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// TimetableEntry is one persisted cell of a class timetable.
type TimetableEntry struct {
	ID           string         `db:"id" json:"id"`
	SchoolYear   string         `db:"school_year" json:"school_year"`
	ClassID      string         `db:"class_id" json:"class_id"`
	DayOfWeek    string         `db:"day_of_week" json:"day_of_week"`
	PeriodNumber int            `db:"period_number" json:"period_number"`
	SubjectID    string         `db:"subject_id" json:"subject_id"`
	TeacherIDs   pq.StringArray `db:"teacher_ids" json:"teacher_ids"`
	Room         string         `db:"room" json:"room"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Ref points at a referenced record. Upstream payloads carry either a bare id
// or the id plus the joined display name; consumers must not assume Name is
// populated.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Expanded reports whether the display name was joined in.
func (r Ref) Expanded() bool {
	return r.Name != ""
}

// TimetableCell is the render-ready form of one occupied grid cell.
type TimetableCell struct {
	EntryID  string `json:"entry_id"`
	Subject  Ref    `json:"subject"`
	Teachers []Ref  `json:"teachers"`
	Room     string `json:"room"`
}

// TimetableGrid maps dayOfWeek → periodNumber (as string) → cell. The map is
// sparse: a missing key and an explicit nil both mean "no entry".
type TimetableGrid map[string]map[string]*TimetableCell

// Cell returns the entry at (day, period key), nil-safe on every level.
func (g TimetableGrid) Cell(day, periodKey string) *TimetableCell {
	if g == nil {
		return nil
	}
	row, ok := g[day]
	if !ok {
		return nil
	}
	return row[periodKey]
}

// TimetableImportRecord is the normalized output unit of the Excel importer,
// one per occupied cell, ready for bulk insertion.
type TimetableImportRecord struct {
	DayOfWeek    string   `json:"day_of_week"`
	PeriodNumber int      `json:"period_number"`
	ClassCode    string   `json:"class_code"`
	SubjectID    string   `json:"subject_id"`
	TeacherIDs   []string `json:"teacher_ids"`
	Room         string   `json:"room"`
}
