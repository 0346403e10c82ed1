// Package login provides the local database login endpoint.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
	"github.com/AgencyDesk/AgencyDesk/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = "/api/auth/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	localAuth   *auth.LocalProvider
	authService *auth.Service
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.localAuth = auth.NewLocalProvider(db)
	s.authService = auth.NewService(db)

	app.Post(Path, s.Post)

	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

// Post handles the login request.
func (s *Service) Post(c *fiber.Ctx) error {
	if !s.cfg.Auth.LocalDB.Enabled {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": ErrLocalAuthDisabled.Error(),
		})
	}

	in := new(loginRequest)
	if err := c.BodyParser(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidFormData.Error(),
		})
	}

	member, err := s.authenticate(in)
	if err != nil {
		status := fiber.StatusUnauthorized
		if errors.Is(err, ErrTOTPCodeRequired) {
			// the client shows the second factor prompt and retries
			return c.Status(status).JSON(fiber.Map{
				"error":         ErrTOTPCodeRequired.Error(),
				"totp_required": true,
			})
		}

		return c.Status(status).JSON(fiber.Map{
			"error": ErrInvalidCredentials.Error(),
		})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	memberSession := &session.Data{
		Member: *member,
	}

	if err = memberSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	s.setSessionCookie(c, sessionID)

	resolved := s.authService.ResolveAccess(member)

	return c.JSON(fiber.Map{
		"member": fiber.Map{
			"id":           member.ID,
			"username":     member.Username,
			"display_name": member.DisplayName,
			"agency_id":    member.AgencyID,
		},
		"permissions": resolved.Codes(),
	})
}

// authenticate verifies the credentials and, when enabled, the TOTP second factor.
func (s *Service) authenticate(in *loginRequest) (*models.TeamMember, error) {
	member, err := s.localAuth.Authenticate(in.Username, in.Password)

	switch {
	case errors.Is(err, auth.ErrTOTPRequired):
		if in.TOTPCode == "" {
			return nil, ErrTOTPCodeRequired
		}

		if err := auth.VerifyTOTP(member, in.TOTPCode); err != nil {
			return nil, ErrInvalidCredentials
		}

		return member, nil
	case err != nil:
		return nil, ErrInvalidCredentials
	default:
		return member, nil
	}
}

func (s *Service) setSessionCookie(c *fiber.Ctx, sessionID string) {
	cookieSettings := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax", // TODO: make this configurable
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)
}
