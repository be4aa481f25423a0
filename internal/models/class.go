package models

import "time"

// Class represents a class/section for one school year.
type Class struct {
	ID                string    `db:"id" json:"id"`
	Code              string    `db:"code" json:"code"`
	Name              string    `db:"name" json:"name"`
	GradeLevel        string    `db:"grade_level" json:"grade_level"`
	SchoolYear        string    `db:"school_year" json:"school_year"`
	HomeroomTeacherID *string   `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	GradeLevel string
	SchoolYear string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
