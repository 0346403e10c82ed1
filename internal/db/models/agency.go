package models

import "time"

// Agency represents a tenant: an isolated agency account.
// Almost every entity in the system is scoped to exactly one agency.
// Platform administrators are the only actors without an agency affiliation.
type Agency struct {
	// ID is the unique identifier for the agency.
	ID uint `gorm:"primaryKey"`
	// Name is the display name of the agency.
	Name string `gorm:"size:100;not null"`
	// Slug is the unique, URL-safe identifier for the agency.
	Slug string `gorm:"unique;size:100;not null"`
	// CommissionRate optionally overrides the global commission rate for this
	// agency (0.20 = 20%). Nil means the configured default applies.
	CommissionRate *float64
	// Active indicates whether the agency account is active.
	Active bool `gorm:"default:true"`
	// CreatedAt is the timestamp when the agency was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the agency was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Agency model.
// This overrides GORM's default pluralized table naming.
func (Agency) TableName() string {
	return "agencies"
}
