package models

import "time"

// PermissionKind distinguishes page-access permissions from action permissions.
type PermissionKind string

const (
	// PermissionKindPage gates access to a whole screen.
	PermissionKindPage PermissionKind = "page"
	// PermissionKindAction gates a single operation.
	PermissionKindAction PermissionKind = "action"
)

// Permission represents an atomic capability in the authorization system.
// Permission codes are immutable once issued; roles reference them through
// the role_permissions join table.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Code is the stable permission identifier in category.action format (e.g., "sales.approve").
	Code string `gorm:"unique;size:100;not null"`
	// Category groups the permission (dashboard, clients, sales, customs, team,
	// comms, content, agencies, settings).
	Category string `gorm:"size:50;not null"`
	// Kind is either page (screen access) or action.
	Kind PermissionKind `gorm:"type:varchar(10);not null"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}
