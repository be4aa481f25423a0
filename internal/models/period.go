package models

import "time"

// PeriodType classifies a timetable period. Regular periods carry subject
// instruction; every other type is a whole-row special period (assembly,
// lunch, nap, snack, dismissal) shared by all weekdays.
type PeriodType string

const (
	PeriodRegular   PeriodType = "regular"
	PeriodMorning   PeriodType = "morning"
	PeriodLunch     PeriodType = "lunch"
	PeriodNap       PeriodType = "nap"
	PeriodSnack     PeriodType = "snack"
	PeriodDismissal PeriodType = "dismissal"
)

// Special reports whether the type is a non-instructional period.
func (t PeriodType) Special() bool {
	return t != PeriodRegular && t != ""
}

// Valid reports whether the type is one of the known values.
func (t PeriodType) Valid() bool {
	switch t {
	case PeriodRegular, PeriodMorning, PeriodLunch, PeriodNap, PeriodSnack, PeriodDismissal:
		return true
	}
	return false
}

// DisplayLabel returns the Vietnamese display label used when a period has no
// explicit label of its own.
func (t PeriodType) DisplayLabel() string {
	switch t {
	case PeriodMorning:
		return "Đầu giờ sáng"
	case PeriodLunch:
		return "Nghỉ trưa"
	case PeriodNap:
		return "Ngủ trưa"
	case PeriodSnack:
		return "Ăn nhẹ"
	case PeriodDismissal:
		return "Tan học"
	default:
		return ""
	}
}

// Period is one declared teaching slot for a school within a school year.
// Number is not guaranteed unique inside a collection; multi-source data
// entry can declare the same slot twice.
type Period struct {
	ID         string     `db:"id" json:"id"`
	SchoolID   string     `db:"school_id" json:"school_id"`
	SchoolYear string     `db:"school_year" json:"school_year"`
	Number     int        `db:"number" json:"number"`
	StartTime  string     `db:"start_time" json:"start_time"`
	EndTime    string     `db:"end_time" json:"end_time"`
	Type       PeriodType `db:"type" json:"type"`
	Label      *string    `db:"label" json:"label,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// HasLabel reports whether an explicit non-empty label is set.
func (p Period) HasLabel() bool {
	return p.Label != nil && *p.Label != ""
}

// PeriodFilter scopes period listings.
type PeriodFilter struct {
	SchoolID   string
	SchoolYear string
}
