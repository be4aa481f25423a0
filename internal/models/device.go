package models

import "time"

// DeviceStatus enumerates lifecycle states of a school device.
type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "available"
	DeviceInUse       DeviceStatus = "in_use"
	DeviceMaintenance DeviceStatus = "maintenance"
	DeviceRetired     DeviceStatus = "retired"
)

// Device represents a physical asset tracked by the school (projector,
// laptop cart, lab kit, ...).
type Device struct {
	ID        string       `db:"id" json:"id"`
	Code      string       `db:"code" json:"code"`
	Name      string       `db:"name" json:"name"`
	Category  string       `db:"category" json:"category"`
	Room      *string      `db:"room" json:"room,omitempty"`
	Status    DeviceStatus `db:"status" json:"status"`
	Notes     *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// DeviceFilter defines filter criteria for listing devices.
type DeviceFilter struct {
	Category  string
	Status    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
