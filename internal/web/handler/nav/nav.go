// Package nav serves the permission-filtered navigation menu.
package nav

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
	"github.com/AgencyDesk/AgencyDesk/internal/web/navigation"
)

const (
	// Path is the path to the navigation endpoint.
	Path = handler.RootPath + "navigation"
)

// Service serves the navigation menu.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
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

	app.Get(Path,
		auth.RequireAuthenticated(authService),
		s.Get,
	)
}

// Get returns the menu entries the member is allowed to see.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"items": navigation.Menu(auth.AccessFromContext(c)),
	})
}
