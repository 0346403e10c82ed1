// Package agency provides the platform-level handlers for managing agency
// tenants: listing, creation and edits including the per-agency commission
// rate override.
package agency

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
)

const (
	// Path is the base path for agency management.
	Path = handler.RootPath + "agencies"
)

// Service provides the agency endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
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
	s.validator = validator.New()

	app.Get(Path,
		auth.RequirePermission(authService, access.PermAgenciesView),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, access.PermAgenciesManage),
		s.Create,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, access.PermAgenciesView),
		s.Get,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, access.PermAgenciesManage),
		s.Update,
	)
}

// List returns every agency tenant.
func (s *Service) List(c *fiber.Ctx) error {
	var rows []models.Agency
	if err := s.db.Order("name ASC").Find(&rows).Error; err != nil {
		log.Error().Err(err).Msg("query agencies failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"agencies": rows})
}

// Get returns one agency.
func (s *Service) Get(c *fiber.Ctx) error {
	agency, err := s.load(c)
	if agency == nil {
		return err
	}

	return c.JSON(fiber.Map{"agency": agency})
}

// Create provisions a new agency tenant.
func (s *Service) Create(c *fiber.Ctx) error {
	var in struct {
		Name           string   `json:"name"            validate:"required,max=100"`
		Slug           string   `json:"slug"            validate:"required,max=100"`
		CommissionRate *float64 `json:"commission_rate" validate:"omitempty,gte=0,lt=1"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	agency := models.Agency{
		Name:           in.Name,
		Slug:           in.Slug,
		CommissionRate: in.CommissionRate,
		Active:         true,
	}

	if err := s.db.Create(&agency).Error; err != nil {
		log.Error().Err(err).Msg("create agency failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"agency": agency})
}

// Update edits an agency, including the commission rate override. Sending
// clear_commission_rate reverts the agency to the configured default.
func (s *Service) Update(c *fiber.Ctx) error {
	agency, err := s.load(c)
	if agency == nil {
		return err
	}

	var in struct {
		Name                *string  `json:"name"            validate:"omitempty,max=100"`
		Active              *bool    `json:"active"`
		CommissionRate      *float64 `json:"commission_rate" validate:"omitempty,gte=0,lt=1"`
		ClearCommissionRate bool     `json:"clear_commission_rate"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	if in.Name != nil {
		agency.Name = *in.Name
	}

	if in.Active != nil {
		agency.Active = *in.Active
	}

	switch {
	case in.ClearCommissionRate:
		agency.CommissionRate = nil
	case in.CommissionRate != nil:
		agency.CommissionRate = in.CommissionRate
	}

	// Save skips nil fields, so the override clear needs an explicit update.
	err = s.db.Model(agency).
		Select("name", "active", "commission_rate").
		Updates(map[string]interface{}{
			"name":            agency.Name,
			"active":          agency.Active,
			"commission_rate": agency.CommissionRate,
		}).Error
	if err != nil {
		log.Error().Err(err).Uint("agency_id", agency.ID).Msg("update agency failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"agency": agency})
}

// load fetches the agency named by the :id route param. On failure the
// response is already written and the agency is nil; the caller returns the
// accompanying error as-is.
func (s *Service) load(c *fiber.Ctx) (*models.Agency, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return nil, badRequest(c, "invalid agency id")
	}

	var agency models.Agency
	err = s.db.First(&agency, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "agency not found"})
	}
	if err != nil {
		log.Error().Err(err).Msg("load agency failed")

		return nil, c.SendStatus(fiber.StatusInternalServerError)
	}

	return &agency, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
