package models

import "time"

// Teacher represents a teaching staff member.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	StaffCode *string   `db:"staff_code" json:"staff_code,omitempty"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Expertise *string   `db:"expertise" json:"expertise,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter defines filter criteria for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
