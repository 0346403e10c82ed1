// Package me provides the current-member profile endpoints: identity and
// resolved permissions for the frontend, password changes and the TOTP
// second factor enrollment.
package me

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
)

const (
	// Path is the base path for the current-member endpoints.
	Path = handler.RootPath + "me"
)

// Service provides the current-member endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	localAuth *auth.LocalProvider
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.localAuth = auth.NewLocalProvider(db)

	app.Get(Path,
		auth.RequireAuthenticated(authService),
		s.Get,
	)
	app.Get(Path+"/access",
		auth.RequireAuthenticated(authService),
		s.GetAccess,
	)
	app.Post(Path+"/password",
		auth.RequireAuthenticated(authService),
		s.ChangePassword,
	)
	app.Post(Path+"/totp/setup",
		auth.RequireAuthenticated(authService),
		s.SetupTOTP,
	)
	app.Post(Path+"/totp/enable",
		auth.RequireAuthenticated(authService),
		s.EnableTOTP,
	)
	app.Post(Path+"/totp/disable",
		auth.RequireAuthenticated(authService),
		s.DisableTOTP,
	)
}

// Get returns the member's profile and freshly resolved access.
func (s *Service) Get(c *fiber.Ctx) error {
	member := auth.MemberFromContext(c)
	resolved := auth.AccessFromContext(c)

	return c.JSON(fiber.Map{
		"member": fiber.Map{
			"id":           member.ID,
			"username":     member.Username,
			"email":        member.Email,
			"display_name": member.DisplayName,
			"agency_id":    member.AgencyID,
			"auth_source":  member.AuthSource,
			"totp_enabled": member.TOTPEnabled,
		},
		"permissions":      resolved.Codes(),
		"platform_admin":   resolved.IsPlatformAdmin(),
		"manager_or_above": resolved.IsManagerOrAbove(),
		"admin_or_above":   resolved.IsAdminOrAbove(),
		"owner":            resolved.IsOwner(),
	})
}

// GetAccess returns the member's effective access. The resolution happens
// fresh on every request, so this doubles as the refresh endpoint after a
// role change.
func (s *Service) GetAccess(c *fiber.Ctx) error {
	resolved := auth.AccessFromContext(c)

	return c.JSON(fiber.Map{
		"permissions":      resolved.Codes(),
		"platform_admin":   resolved.IsPlatformAdmin(),
		"manager_or_above": resolved.IsManagerOrAbove(),
		"admin_or_above":   resolved.IsAdminOrAbove(),
		"owner":            resolved.IsOwner(),
	})
}

// ChangePassword changes the member's local password.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	member := auth.MemberFromContext(c)
	if member.AuthSource != models.AuthSourceLocal {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "password changes only apply to local accounts",
		})
	}

	var in struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&in); err != nil || in.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := s.localAuth.ChangePassword(member.ID, in.OldPassword, in.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidOldPassword) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": auth.ErrInvalidOldPassword.Error(),
			})
		}

		log.Error().Err(err).Uint64("member_id", member.ID).Msg("password change failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetupTOTP generates a fresh secret for enrollment. The secret is returned
// to the client for the authenticator app and only persisted once EnableTOTP
// confirms a valid code.
func (s *Service) SetupTOTP(c *fiber.Ctx) error {
	member := auth.MemberFromContext(c)

	key, err := auth.GenerateTOTPSecret(member.Username)
	if err != nil {
		log.Error().Err(err).Uint64("member_id", member.ID).Msg("totp setup failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"secret": key.Secret(),
		"url":    key.URL(),
	})
}

// EnableTOTP turns the second factor on after verifying a code.
func (s *Service) EnableTOTP(c *fiber.Ctx) error {
	member := auth.MemberFromContext(c)

	var in struct {
		Secret string `json:"secret"`
		Code   string `json:"code"`
	}
	if err := c.BodyParser(&in); err != nil || in.Secret == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := auth.EnableTOTP(s.db, member.ID, in.Secret, in.Code); err != nil {
		if errors.Is(err, auth.ErrTOTPInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": auth.ErrTOTPInvalid.Error(),
			})
		}

		log.Error().Err(err).Uint64("member_id", member.ID).Msg("totp enable failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DisableTOTP turns the second factor off.
func (s *Service) DisableTOTP(c *fiber.Ctx) error {
	member := auth.MemberFromContext(c)

	if err := auth.DisableTOTP(s.db, member.ID); err != nil {
		log.Error().Err(err).Uint64("member_id", member.ID).Msg("totp disable failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
