package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

const (
	whereIDAndAuthSource = "id = ? AND auth_source = ?"

	whereID = "id = ?"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate authenticates a member against the local database.
// Members with the TOTP second factor enabled additionally require a code;
// the caller handles ErrTOTPRequired by collecting one and calling VerifyTOTP.
func (p *LocalProvider) Authenticate(username, password string) (*models.TeamMember, error) {
	var member models.TeamMember

	err := p.db.Where("username = ? AND auth_source = ?", username, models.AuthSourceLocal).
		First(&member).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query member: %w", err)
	}

	if !member.Active || member.DeletedAt != nil {
		return nil, ErrMemberAccountDisabled
	}

	if !member.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	if member.TOTPEnabled {
		return &member, ErrTOTPRequired
	}

	return &member, nil
}

// CreateMember creates a new local member account.
func (p *LocalProvider) CreateMember(
	agencyID *uint,
	username, email, password, displayName string,
	legacyRole models.LegacyRole,
) (*models.TeamMember, error) {
	var existing models.TeamMember

	err := p.db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, ErrMemberNameOrEmailExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}

	member := models.TeamMember{
		AgencyID:    agencyID,
		Active:      true,
		Username:    username,
		Email:       email,
		Password:    models.HashPassword(password),
		DisplayName: displayName,
		LegacyRole:  legacyRole,
		AuthSource:  models.AuthSourceLocal,
	}

	if err := p.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return &member, nil
}

// ChangePassword changes a member's password after verifying the old one.
func (p *LocalProvider) ChangePassword(memberID uint64, oldPassword, newPassword string) error {
	var member models.TeamMember
	if err := p.db.Where(whereIDAndAuthSource, memberID, models.AuthSourceLocal).
		First(&member).Error; err != nil {
		return fmt.Errorf("member not found: %w", err)
	}

	if !member.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return p.db.Model(&models.TeamMember{}).
		Where(whereID, memberID).
		Update("password", models.HashPassword(newPassword)).Error
}

// ResetPassword resets a member's password (admin function).
func (p *LocalProvider) ResetPassword(memberID uint64, newPassword string) error {
	return p.db.Model(&models.TeamMember{}).
		Where(whereIDAndAuthSource, memberID, models.AuthSourceLocal).
		Update("password", models.HashPassword(newPassword)).Error
}

// ActivateMember activates a member account.
func (p *LocalProvider) ActivateMember(memberID uint64) error {
	return p.db.Model(&models.TeamMember{}).
		Where(whereID, memberID).
		Update("active", true).Error
}

// DeactivateMember deactivates a member account. Accounts are never
// hard-deleted; deactivation is how members are removed from a team.
func (p *LocalProvider) DeactivateMember(memberID uint64) error {
	return p.db.Model(&models.TeamMember{}).
		Where(whereID, memberID).
		Update("active", false).Error
}
