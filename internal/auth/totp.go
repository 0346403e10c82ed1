package auth

import (
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

// totpIssuer is shown in authenticator apps next to the account name.
const totpIssuer = "AgencyDesk"

// GenerateTOTPSecret creates a fresh TOTP key for a member. The secret is
// not persisted until EnableTOTP confirms the member can produce codes.
func GenerateTOTPSecret(username string) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: username,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	return key, nil
}

// EnableTOTP stores the secret and switches the second factor on, but only
// after the member proves they hold it by producing a valid code.
func EnableTOTP(db *gorm.DB, memberID uint64, secret, code string) error {
	if !totp.Validate(code, secret) {
		return ErrTOTPInvalid
	}

	return db.Model(&models.TeamMember{}).
		Where(whereID, memberID).
		Updates(map[string]interface{}{
			"totp_secret":  secret,
			"totp_enabled": true,
		}).Error
}

// DisableTOTP switches the second factor off and clears the secret.
func DisableTOTP(db *gorm.DB, memberID uint64) error {
	return db.Model(&models.TeamMember{}).
		Where(whereID, memberID).
		Updates(map[string]interface{}{
			"totp_secret":  "",
			"totp_enabled": false,
		}).Error
}

// VerifyTOTP checks a code against the member's stored secret.
func VerifyTOTP(member *models.TeamMember, code string) error {
	if member == nil || !member.TOTPEnabled || member.TOTPSecret == "" {
		return ErrTOTPNotEnabled
	}

	if !totp.Validate(code, member.TOTPSecret) {
		return ErrTOTPInvalid
	}

	return nil
}
