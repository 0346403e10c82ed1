// Package team provides handlers for managing the agency roster: inviting
// members, editing their profile and role assignment, and deactivation.
// Member rows are never hard-deleted so past sales and requests keep a
// valid author.
package team

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
	// Path is the base path for roster management.
	Path = handler.RootPath + "team"
)

// Service provides the roster endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	localAuth *auth.LocalProvider
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
	s.localAuth = auth.NewLocalProvider(db)
	s.validator = validator.New()

	app.Get(Path,
		auth.RequirePermission(authService, access.PermTeamView),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, access.PermTeamInvite),
		s.Invite,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, access.PermTeamView),
		s.Get,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, access.PermTeamEdit),
		s.Update,
	)
	app.Post(Path+"/:id/activate",
		auth.RequirePermission(authService, access.PermTeamRemove),
		s.Activate,
	)
	app.Post(Path+"/:id/deactivate",
		auth.RequirePermission(authService, access.PermTeamRemove),
		s.Deactivate,
	)
	app.Post(Path+"/:id/reset-password",
		auth.RequirePermission(authService, access.PermTeamEdit),
		s.ResetPassword,
	)
}

// memberView strips credentials and secrets from a roster row.
func memberView(m *models.TeamMember) fiber.Map {
	view := fiber.Map{
		"id":           m.ID,
		"agency_id":    m.AgencyID,
		"username":     m.Username,
		"email":        m.Email,
		"display_name": m.DisplayName,
		"legacy_role":  m.LegacyRole,
		"role_id":      m.RoleID,
		"auth_source":  m.AuthSource,
		"active":       m.Active,
		"totp_enabled": m.TOTPEnabled,
		"created_at":   m.CreatedAt,
	}

	if m.Role != nil {
		view["role"] = fiber.Map{
			"id":              m.Role.ID,
			"name":            m.Role.Name,
			"slug":            m.Role.Slug,
			"color":           m.Role.Color,
			"hierarchy_level": m.Role.HierarchyLevel,
		}
	}

	return view
}

// List returns the agency roster.
func (s *Service) List(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	var rows []models.TeamMember
	err := s.db.Preload("Role").
		Where("agency_id = ?", agencyID).
		Order("display_name ASC").
		Find(&rows).Error
	if err != nil {
		log.Error().Err(err).Msg("query roster failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	views := make([]fiber.Map, 0, len(rows))
	for i := range rows {
		views = append(views, memberView(&rows[i]))
	}

	return c.JSON(fiber.Map{"members": views})
}

// Get returns one roster member.
func (s *Service) Get(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	member, err := s.load(c, agencyID)
	if member == nil {
		return err
	}

	return c.JSON(fiber.Map{"member": memberView(member)})
}

// Invite creates a local member account on the agency.
func (s *Service) Invite(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	var in struct {
		Username    string `json:"username"     validate:"required,max=100"`
		Email       string `json:"email"        validate:"required,email,max=255"`
		Password    string `json:"password"     validate:"required,min=8"`
		DisplayName string `json:"display_name" validate:"max=100"`
		LegacyRole  string `json:"legacy_role"  validate:"omitempty,oneof=owner admin manager chatter pending"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	legacyRole := models.LegacyRole(in.LegacyRole)
	if legacyRole == "" {
		legacyRole = models.LegacyRolePending
	}

	member, err := s.localAuth.CreateMember(
		&agencyID, in.Username, in.Email, in.Password, in.DisplayName, legacyRole,
	)
	if err != nil {
		if errors.Is(err, auth.ErrMemberNameOrEmailExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": auth.ErrMemberNameOrEmailExists.Error(),
			})
		}

		log.Error().Err(err).Msg("invite member failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"member": memberView(member)})
}

// Update edits a member's profile, legacy role and role assignment.
func (s *Service) Update(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	member, err := s.load(c, agencyID)
	if member == nil {
		return err
	}

	var in struct {
		Email       *string `json:"email"        validate:"omitempty,email,max=255"`
		DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
		LegacyRole  *string `json:"legacy_role"  validate:"omitempty,oneof=owner admin manager chatter pending"`
		RoleID      *uint   `json:"role_id"`
		ClearRole   bool    `json:"clear_role"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	if in.Email != nil {
		member.Email = *in.Email
	}

	if in.DisplayName != nil {
		member.DisplayName = *in.DisplayName
	}

	if in.LegacyRole != nil {
		member.LegacyRole = models.LegacyRole(*in.LegacyRole)
	}

	switch {
	case in.ClearRole:
		member.RoleID = nil
		member.Role = nil
	case in.RoleID != nil:
		assigned, err := role.Get(s.db, agencyID, *in.RoleID)
		if errors.Is(err, role.ErrRoleNotFound) {
			return badRequest(c, "role not found in this agency")
		}
		if err != nil {
			log.Error().Err(err).Msg("lookup role failed")

			return c.SendStatus(fiber.StatusInternalServerError)
		}

		member.RoleID = &assigned.ID
		member.Role = assigned
	}

	// associations are read-only here; saving them would touch role rows
	if err := s.db.Omit("Role", "Agency").Save(member).Error; err != nil {
		log.Error().Err(err).Msg("update member failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"member": memberView(member)})
}

// Activate re-enables a deactivated account.
func (s *Service) Activate(c *fiber.Ctx) error {
	return s.setActive(c, true)
}

// Deactivate disables an account. The row is kept.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	return s.setActive(c, false)
}

func (s *Service) setActive(c *fiber.Ctx, active bool) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	member, err := s.load(c, agencyID)
	if member == nil {
		return err
	}

	if !active && member.ID == auth.MemberFromContext(c).ID {
		return badRequest(c, "cannot deactivate your own account")
	}

	var actionErr error
	if active {
		actionErr = s.localAuth.ActivateMember(member.ID)
	} else {
		actionErr = s.localAuth.DeactivateMember(member.ID)
	}

	if actionErr != nil {
		log.Error().Err(actionErr).Uint64("member_id", member.ID).Msg("toggle member failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ResetPassword sets a new password on a local account.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	member, err := s.load(c, agencyID)
	if member == nil {
		return err
	}

	if member.AuthSource != models.AuthSourceLocal {
		return badRequest(c, "password resets only apply to local accounts")
	}

	var in struct {
		Password string `json:"password" validate:"required,min=8"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.localAuth.ResetPassword(member.ID, in.Password); err != nil {
		log.Error().Err(err).Uint64("member_id", member.ID).Msg("reset password failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// load fetches the member named by the :id route param, scoped to the agency.
// On failure the response is already written and the member is nil; the
// caller returns the accompanying error as-is.
func (s *Service) load(c *fiber.Ctx, agencyID uint) (*models.TeamMember, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, badRequest(c, "invalid member id")
	}

	var member models.TeamMember
	err = s.db.Preload("Role").Where("agency_id = ?", agencyID).First(&member, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "member not found"})
	}
	if err != nil {
		log.Error().Err(err).Msg("load member failed")

		return nil, c.SendStatus(fiber.StatusInternalServerError)
	}

	return &member, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
