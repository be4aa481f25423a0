package models

import "time"

// Curriculum groups the subjects taught at a grade level for a school year.
type Curriculum struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	GradeLevel  string    `db:"grade_level" json:"grade_level"`
	SchoolYear  string    `db:"school_year" json:"school_year"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CurriculumSubject links a subject into a curriculum with a weekly quota.
type CurriculumSubject struct {
	ID            string    `db:"id" json:"id"`
	CurriculumID  string    `db:"curriculum_id" json:"curriculum_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	WeeklyPeriods int       `db:"weekly_periods" json:"weekly_periods"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CurriculumFilter defines filter criteria for listing curricula.
type CurriculumFilter struct {
	GradeLevel string
	SchoolYear string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
