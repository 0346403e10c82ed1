package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AuthSource represents the authentication source for a team member account.
type AuthSource string

const (
	// AuthSourceLocal indicates the member authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceOIDC indicates the member authenticates via OpenID Connect (OIDC).
	AuthSourceOIDC AuthSource = "oidc"
)

// LegacyRole is the original four-value role enumeration, retained as a
// fallback once fine-grained roles were introduced. Members without an
// assigned role resolve their permissions from this value.
type LegacyRole string

const (
	// LegacyRoleOwner is the agency owner.
	LegacyRoleOwner LegacyRole = "owner"
	// LegacyRoleAdmin is an agency administrator.
	LegacyRoleAdmin LegacyRole = "admin"
	// LegacyRoleManager runs day-to-day operations.
	LegacyRoleManager LegacyRole = "manager"
	// LegacyRoleChatter submits sales and custom requests for assigned clients.
	LegacyRoleChatter LegacyRole = "chatter"
	// LegacyRolePending is a freshly provisioned member awaiting a role assignment.
	LegacyRolePending LegacyRole = "pending"
)

// TeamMember represents an authenticated team member account (an actor).
// Members belong to at most one agency; platform administrators have no
// agency affiliation and implicitly hold every permission.
// Members are never hard-deleted, only deactivated.
type TeamMember struct {
	// ID is the unique identifier for the team member.
	ID uint64 `gorm:"primaryKey"`
	// AgencyID is the owning agency. Nil only for platform administrators.
	AgencyID *uint `gorm:"index"`
	// Agency is the associated agency (loaded via foreign key).
	Agency *Agency `gorm:"foreignKey:AgencyID"`
	// Active indicates whether the member account is active and can log in.
	Active bool
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the member's email address.
	Email string `gorm:"size:255;not null"`
	// Password is the Argon2id hashed password (only used for local authentication).
	Password string `gorm:"size:255"`
	// DisplayName is the name shown across the application.
	DisplayName string `gorm:"size:100"`
	// LegacyRole is the coarse role string used when no Role is assigned.
	LegacyRole LegacyRole `gorm:"type:varchar(20);not null;default:'pending'"`
	// RoleID is the optional fine-grained role assignment.
	RoleID *uint `gorm:"column:role_id"`
	// Role is the associated role (loaded via foreign key).
	Role *Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:SET NULL,OnUpdate:CASCADE"`
	// IsPlatformAdmin grants every permission and bypasses tenant scoping.
	IsPlatformAdmin bool `gorm:"default:false"`
	// AuthSource indicates how this member authenticates (local or oidc).
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID is the external identifier for OIDC (sub claim) members.
	ExternalID string `gorm:"size:255"`
	// TOTPSecret is the shared secret for the optional TOTP second factor.
	TOTPSecret string `gorm:"size:255"`
	// TOTPEnabled indicates whether the TOTP second factor is required at login.
	TOTPEnabled bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the member was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the member was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// TableName specifies the database table name for the TeamMember model.
// This overrides GORM's default pluralized table naming.
func (TeamMember) TableName() string {
	return "team_members"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating local member passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the member's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (m *TeamMember) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, m.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
