package oidc

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
	"github.com/AgencyDesk/AgencyDesk/internal/web/session"
)

const (
	// Path is the base path for the OIDC endpoints.
	Path = "/api/auth/oidc"

	// stateCookieName holds the OAuth2 state token between redirect and callback.
	stateCookieName = "oidc_state"

	// stateCookieMaxAge bounds how long a login attempt may take.
	stateCookieMaxAge = 10 * time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	provider *auth.OIDCProvider
}

// Handler is the OIDC handler.
var Handler = Service{}

// Init initializes the OIDC handler. When OIDC is disabled the endpoints
// are still registered and answer with 403 so the frontend can probe.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg

	if cfg.Auth.OIDC.Enabled {
		provider, err := auth.NewOIDCProvider(context.Background(), &auth.OIDCConfig{
			Enabled:      cfg.Auth.OIDC.Enabled,
			ProviderURL:  cfg.Auth.OIDC.ProviderURL,
			ClientID:     cfg.Auth.OIDC.ClientID,
			ClientSecret: cfg.Auth.OIDC.ClientSecret,
			RedirectURL:  cfg.Auth.OIDC.RedirectURL,
			Scopes:       cfg.Auth.OIDC.Scopes,
		}, db)
		if err != nil {
			return err
		}

		s.provider = provider
	}

	app.Get(Path+"/login", s.Login)
	app.Get(Path+"/callback", s.Callback)

	return nil
}

// Login redirects to the identity provider's authorization endpoint.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": auth.ErrOIDCDisabled.Error(),
		})
	}

	state := auth.GenerateStateToken()

	c.Cookie(&fiber.Cookie{
		Name:     stateCookieName,
		Value:    state,
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Redirect(s.provider.GetAuthURL(state))
}

// Callback handles the provider redirect, opens a session and sends the
// member back to the application root.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": auth.ErrOIDCDisabled.Error(),
		})
	}

	state := c.Query("state")
	if state == "" || state != c.Cookies(stateCookieName) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid state token",
		})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing authorization code",
		})
	}

	member, err := s.provider.HandleCallback(c.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("oidc callback failed")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication failed",
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

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	// clear the state cookie
	c.Cookie(&fiber.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})

	return c.Redirect("/")
}
