// Package clients provides handlers for managing clients (CRUD and chatter assignment).
package clients

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
	// Path is the base path for client management.
	Path = handler.RootPath + "clients"
)

// Service provides CRUD operations for clients.
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
		auth.RequirePermission(authService, access.PermClientsView),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, access.PermClientsCreate),
		s.Create,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, access.PermClientsView),
		s.Get,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, access.PermClientsEdit),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, access.PermClientsDelete),
		s.Deactivate,
	)
	app.Post(Path+"/:id/assign",
		auth.RequirePermission(authService, access.PermClientsAssign),
		s.Assign,
	)
}

// List returns the agency's clients. Members below manager level only see
// the clients assigned to them.
func (s *Service) List(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	tx := s.db.Where("agency_id = ?", agencyID)

	resolved := auth.AccessFromContext(c)
	if !resolved.IsManagerOrAbove() {
		member := auth.MemberFromContext(c)
		tx = tx.Where("assigned_chatter_id = ?", member.ID)
	}

	var rows []models.Client
	if err := tx.Order("display_name ASC").Find(&rows).Error; err != nil {
		log.Error().Err(err).Msg("query clients failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"clients": rows})
}

// Get returns one client.
func (s *Service) Get(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	client, err := s.load(c, agencyID)
	if client == nil {
		return err
	}

	return c.JSON(fiber.Map{"client": client})
}

// Create adds a client to the agency.
func (s *Service) Create(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	var in struct {
		DisplayName       string  `json:"display_name" validate:"required,max=100"`
		Handle            string  `json:"handle"       validate:"max=100"`
		Notes             string  `json:"notes"`
		AssignedChatterID *uint64 `json:"assigned_chatter_id"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	client := models.Client{
		AgencyID:          agencyID,
		DisplayName:       in.DisplayName,
		Handle:            in.Handle,
		Notes:             in.Notes,
		AssignedChatterID: in.AssignedChatterID,
		Active:            true,
	}

	if err := s.db.Create(&client).Error; err != nil {
		log.Error().Err(err).Msg("create client failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"client": client})
}

// Update edits a client's fields.
func (s *Service) Update(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	client, err := s.load(c, agencyID)
	if client == nil {
		return err
	}

	var in struct {
		DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
		Handle      *string `json:"handle"       validate:"omitempty,max=100"`
		Notes       *string `json:"notes"`
		Active      *bool   `json:"active"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	if in.DisplayName != nil {
		client.DisplayName = *in.DisplayName
	}

	if in.Handle != nil {
		client.Handle = *in.Handle
	}

	if in.Notes != nil {
		client.Notes = *in.Notes
	}

	if in.Active != nil {
		client.Active = *in.Active
	}

	if err := s.db.Save(client).Error; err != nil {
		log.Error().Err(err).Msg("update client failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"client": client})
}

// Deactivate retires a client. Rows are kept for sale and request history.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	client, err := s.load(c, agencyID)
	if client == nil {
		return err
	}

	client.Active = false
	if err := s.db.Save(client).Error; err != nil {
		log.Error().Err(err).Msg("deactivate client failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Assign sets or clears the chatter working this client.
func (s *Service) Assign(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	client, err := s.load(c, agencyID)
	if client == nil {
		return err
	}

	var in struct {
		ChatterID *uint64 `json:"chatter_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if in.ChatterID != nil {
		var member models.TeamMember
		err := s.db.Where("id = ? AND agency_id = ?", *in.ChatterID, agencyID).First(&member).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return badRequest(c, "chatter not found in this agency")
		}
		if err != nil {
			log.Error().Err(err).Msg("lookup chatter failed")

			return c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	client.AssignedChatterID = in.ChatterID
	if err := s.db.Save(client).Error; err != nil {
		log.Error().Err(err).Msg("assign client failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"client": client})
}

// load fetches the client named by the :id route param, scoped to the agency.
// On failure the response is already written and the client is nil; the
// caller returns the accompanying error as-is.
func (s *Service) load(c *fiber.Ctx, agencyID uint) (*models.Client, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, badRequest(c, "invalid client id")
	}

	var client models.Client
	err = s.db.Where("agency_id = ?", agencyID).First(&client, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "client not found"})
	}
	if err != nil {
		log.Error().Err(err).Msg("load client failed")

		return nil, c.SendStatus(fiber.StatusInternalServerError)
	}

	return &client, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
