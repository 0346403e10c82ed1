// Package role provides handlers for managing fine-grained roles: CRUD,
// cloning, and the permission grant matrix. Immutable roles only accept
// changes from owners.
package role

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
	"github.com/AgencyDesk/AgencyDesk/internal/db/controller/role"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
)

const (
	// Path is the base path for role management.
	Path = handler.RootPath + "roles"
)

// Service provides the role endpoints.
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
		auth.RequirePermission(authService, access.PermTeamRoles),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, access.PermTeamRoles),
		s.Create,
	)
	app.Get(Path+"/catalog",
		auth.RequirePermission(authService, access.PermTeamRoles),
		s.Catalog,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, access.PermTeamRoles),
		s.Get,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, access.PermTeamRoles),
		s.Update,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, access.PermTeamRoles),
		s.Delete,
	)
	app.Put(Path+"/:id/grants",
		auth.RequirePermission(authService, access.PermTeamRoles),
		s.SetGrants,
	)
	app.Post(Path+"/:id/clone",
		auth.RequirePermission(authService, access.PermTeamRoles),
		s.Clone,
	)
}

// Catalog returns every assignable permission, grouped for the grant matrix.
func (s *Service) Catalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"permissions": access.Catalog()})
}

// List returns the roles visible to the agency, highest hierarchy first.
func (s *Service) List(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	roles, err := role.List(s.db, agencyID)
	if err != nil {
		log.Error().Err(err).Msg("query roles failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"roles": roles})
}

// Get returns one role with its grants.
func (s *Service) Get(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := roleID(c)
	if !ok {
		return badRequest(c, "invalid role id")
	}

	r, err := role.Get(s.db, agencyID, id)
	if err != nil {
		return s.fail(c, err)
	}

	grants, err := role.GrantCodes(s.db, r.ID)
	if err != nil {
		log.Error().Err(err).Uint("role_id", r.ID).Msg("query role grants failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"role": r, "grants": grants})
}

// Create adds an agency-owned role.
func (s *Service) Create(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	var in struct {
		Name           string `json:"name"            validate:"required,max=100"`
		Slug           string `json:"slug"            validate:"required,max=100"`
		Color          string `json:"color"           validate:"max=20"`
		HierarchyLevel int    `json:"hierarchy_level" validate:"gte=0,lte=100"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	r := models.Role{
		AgencyID:       &agencyID,
		Name:           in.Name,
		Slug:           in.Slug,
		Color:          in.Color,
		HierarchyLevel: in.HierarchyLevel,
	}

	if err := role.Create(s.db, &r); err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"role": r})
}

// Update edits a role's name, color and hierarchy level.
func (s *Service) Update(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := roleID(c)
	if !ok {
		return badRequest(c, "invalid role id")
	}

	r, err := role.Get(s.db, agencyID, id)
	if err != nil {
		return s.fail(c, err)
	}

	if denied := s.refuseImmutable(c, r); denied != nil {
		return denied
	}

	var in struct {
		Name           *string `json:"name"            validate:"omitempty,max=100"`
		Color          *string `json:"color"           validate:"omitempty,max=20"`
		HierarchyLevel *int    `json:"hierarchy_level" validate:"omitempty,gte=0,lte=100"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	if in.Name != nil {
		r.Name = *in.Name
	}

	if in.Color != nil {
		r.Color = *in.Color
	}

	if in.HierarchyLevel != nil {
		r.HierarchyLevel = *in.HierarchyLevel
	}

	if err := role.Update(s.db, r); err != nil {
		log.Error().Err(err).Uint("role_id", r.ID).Msg("update role failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"role": r})
}

// Delete removes a deletable role. Members holding it fall back to their
// legacy role.
func (s *Service) Delete(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := roleID(c)
	if !ok {
		return badRequest(c, "invalid role id")
	}

	if err := role.Delete(s.db, agencyID, id); err != nil {
		return s.fail(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetGrants replaces the role's permission grants.
func (s *Service) SetGrants(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := roleID(c)
	if !ok {
		return badRequest(c, "invalid role id")
	}

	r, err := role.Get(s.db, agencyID, id)
	if err != nil {
		return s.fail(c, err)
	}

	if denied := s.refuseImmutable(c, r); denied != nil {
		return denied
	}

	var in struct {
		Codes []string `json:"codes"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := role.SetGrants(s.db, r.ID, in.Codes); err != nil {
		return s.fail(c, err)
	}

	grants, err := role.GrantCodes(s.db, r.ID)
	if err != nil {
		log.Error().Err(err).Uint("role_id", r.ID).Msg("query role grants failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"role": r, "grants": grants})
}

// Clone copies a role and its grants into a new agency-owned role.
func (s *Service) Clone(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := roleID(c)
	if !ok {
		return badRequest(c, "invalid role id")
	}

	var in struct {
		Name string `json:"name" validate:"required,max=100"`
		Slug string `json:"slug" validate:"required,max=100"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	clone, err := role.Clone(s.db, agencyID, id, in.Name, in.Slug)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"role": clone})
}

// refuseImmutable blocks non-owners from editing immutable roles. Returns
// nil when the edit may proceed.
func (s *Service) refuseImmutable(c *fiber.Ctx, r *models.Role) error {
	if !r.IsImmutable {
		return nil
	}

	resolved := auth.AccessFromContext(c)
	if resolved.IsOwner() || resolved.IsPlatformAdmin() {
		return nil
	}

	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "only owners can edit this role",
	})
}

func roleID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}

	return uint(id), true
}

func (s *Service) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, role.ErrRoleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, role.ErrSlugTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, role.ErrRoleProtected):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, role.ErrUnknownPermission):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("role operation failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
