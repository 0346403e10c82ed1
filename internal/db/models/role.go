package models

import "time"

// Hierarchy level thresholds used for coarse role comparisons.
const (
	// HierarchyManager is the minimum level for "manager or above" checks.
	HierarchyManager = 60
	// HierarchyAdmin is the minimum level for "admin or above" checks.
	HierarchyAdmin = 80
	// HierarchyOwner is the level of an agency owner.
	HierarchyOwner = 100
)

// Role represents a named, agency-scoped bundle of permissions.
// Roles carry an integer hierarchy level used for coarse checks
// (manager >= 60, admin >= 80, owner >= 100).
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// AgencyID is the owning agency. Nil for platform role templates.
	AgencyID *uint `gorm:"index"`
	// Name is the display name of the role.
	Name string `gorm:"size:100;not null"`
	// Slug is the unique identifier of the role (e.g., "head-of-sales").
	Slug string `gorm:"unique;size:100;not null"`
	// Color is a presentation-only hex color for the role badge.
	Color string `gorm:"size:20"`
	// HierarchyLevel ranks the role; higher means more access.
	HierarchyLevel int `gorm:"not null;default:0"`
	// IsSystemDefault marks roles seeded by the platform; they cannot be deleted.
	IsSystemDefault bool `gorm:"default:false"`
	// IsImmutable marks roles whose name and grants only owners may edit.
	IsImmutable bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}

// Deletable reports whether the role may be removed: system-default and
// immutable roles are kept forever.
func (r *Role) Deletable() bool {
	return !r.IsSystemDefault && !r.IsImmutable
}
