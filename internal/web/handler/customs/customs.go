// Package customs provides handlers for the custom content request lifecycle.
//
// Every mutating endpoint carries the request's lock_version; a write that
// lost the optimistic concurrency race answers 409 so the frontend reloads
// and replays the action against the current state.
package customs

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/customs"
	"github.com/AgencyDesk/AgencyDesk/internal/db/controller/customrequest"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
)

const (
	// Path is the base path for custom request management.
	Path = handler.RootPath + "customs"
)

// Service provides the custom request endpoints.
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
		auth.RequirePermission(authService, access.PermCustomsView),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, access.PermCustomsCreate),
		s.Create,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, access.PermCustomsView),
		s.Get,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, access.PermCustomsEdit),
		s.Update,
	)
	app.Post(Path+"/:id/submit",
		auth.RequirePermission(authService, access.PermCustomsCreate),
		s.Submit,
	)
	app.Post(Path+"/:id/approve",
		auth.RequirePermission(authService, access.PermCustomsApprove),
		s.Approve,
	)
	app.Post(Path+"/:id/deny",
		auth.RequirePermission(authService, access.PermCustomsApprove),
		s.Deny,
	)
	app.Post(Path+"/:id/client-approve",
		auth.RequirePermission(authService, access.PermCustomsApprove),
		s.ClientApprove,
	)
	app.Post(Path+"/:id/complete",
		auth.RequirePermission(authService, access.PermCustomsComplete),
		s.Complete,
	)
	app.Post(Path+"/:id/deliver",
		auth.RequirePermission(authService, access.PermCustomsDeliver),
		s.Deliver,
	)
	app.Delete(Path+"/:id",
		auth.RequirePermission(authService, access.PermCustomsDelete),
		s.Delete,
	)
}

// requestView is the JSON rendering of a request with the derived balance.
func requestView(r *models.CustomRequest) fiber.Map {
	return fiber.Map{
		"request":         r,
		"pending_balance": customs.PendingBalance(r.ProposedAmount, r.AmountPaid),
	}
}

// List returns the agency's requests with optional status, priority and
// client filters.
func (s *Service) List(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	filter := customrequest.Filter{
		Status:   models.RequestStatus(c.Query("status")),
		Priority: models.RequestPriority(c.Query("priority")),
	}

	if clientID, err := strconv.ParseUint(c.Query("client_id", "0"), 10, 64); err == nil {
		filter.ClientID = clientID
	}

	rows, err := customrequest.List(s.db, agencyID, filter)
	if err != nil {
		log.Error().Err(err).Msg("query custom requests failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"requests": rows})
}

// Get returns one request.
func (s *Service) Get(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := s.requestID(c)
	if !ok {
		return badRequest(c, "invalid request id")
	}

	request, err := customrequest.Get(s.db, agencyID, id)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(requestView(request))
}

// Create opens a new request in status pending.
func (s *Service) Create(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	var in struct {
		ClientID       uint64     `json:"client_id"       validate:"required"`
		FanName        string     `json:"fan_name"        validate:"max=100"`
		FanEmail       string     `json:"fan_email"       validate:"omitempty,email,max=255"`
		Description    string     `json:"description"     validate:"required"`
		ProposedAmount float64    `json:"proposed_amount" validate:"gte=0"`
		Priority       string     `json:"priority"        validate:"omitempty,oneof=low medium high urgent"`
		DateDue        *time.Time `json:"date_due"`
		Notes          string     `json:"notes"`
		ChatLink       string     `json:"chat_link"       validate:"max=500"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	member := auth.MemberFromContext(c)

	request, err := customrequest.Create(s.db, customs.NewRequest{
		AgencyID:       agencyID,
		ClientID:       in.ClientID,
		FanName:        in.FanName,
		FanEmail:       in.FanEmail,
		Description:    in.Description,
		ProposedAmount: in.ProposedAmount,
		Priority:       models.RequestPriority(in.Priority),
		DateDue:        in.DateDue,
		Notes:          in.Notes,
		ChatLink:       in.ChatLink,
		CreatedBy:      member.ID,
	}, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("create custom request failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusCreated).JSON(requestView(request))
}

// Update edits the request's free-form fields.
func (s *Service) Update(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := s.requestID(c)
	if !ok {
		return badRequest(c, "invalid request id")
	}

	var in struct {
		LockVersion    int                     `json:"lock_version"`
		FanName        *string                 `json:"fan_name"`
		FanEmail       *string                 `json:"fan_email"`
		Description    *string                 `json:"description"`
		ProposedAmount *float64                `json:"proposed_amount"`
		AmountPaid     *float64                `json:"amount_paid"`
		Priority       *models.RequestPriority `json:"priority"`
		DateDue        *time.Time              `json:"date_due"`
		Notes          *string                 `json:"notes"`
		ChatLink       *string                 `json:"chat_link"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	request, err := customrequest.Update(s.db, agencyID, id, in.LockVersion, customs.Edit{
		FanName:        in.FanName,
		FanEmail:       in.FanEmail,
		Description:    in.Description,
		ProposedAmount: in.ProposedAmount,
		AmountPaid:     in.AmountPaid,
		Priority:       in.Priority,
		DateDue:        in.DateDue,
		Notes:          in.Notes,
		ChatLink:       in.ChatLink,
	})
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(requestView(request))
}

// Submit moves the request into the team review queue.
func (s *Service) Submit(c *fiber.Ctx) error {
	return s.transition(c, func(agencyID uint, id uint64, lockVersion int, _ uint64) (*models.CustomRequest, error) {
		return customrequest.Submit(s.db, agencyID, id, lockVersion)
	})
}

// Approve records the team approval.
func (s *Service) Approve(c *fiber.Ctx) error {
	return s.transition(c, func(agencyID uint, id uint64, lockVersion int, actorID uint64) (*models.CustomRequest, error) {
		return customrequest.TeamApprove(s.db, agencyID, id, lockVersion, actorID, time.Now())
	})
}

// Deny cancels the request with a reason; the row is retained.
func (s *Service) Deny(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := s.requestID(c)
	if !ok {
		return badRequest(c, "invalid request id")
	}

	var in struct {
		LockVersion int    `json:"lock_version"`
		Reason      string `json:"reason" validate:"max=500"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	member := auth.MemberFromContext(c)

	request, err := customrequest.Deny(s.db, agencyID, id, in.LockVersion, member.ID, in.Reason, time.Now())
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(requestView(request))
}

// ClientApprove records the client confirmation and the estimated delivery date.
func (s *Service) ClientApprove(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := s.requestID(c)
	if !ok {
		return badRequest(c, "invalid request id")
	}

	var in struct {
		LockVersion       int       `json:"lock_version"`
		EstimatedDelivery time.Time `json:"estimated_delivery"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	request, err := customrequest.ClientApprove(s.db, agencyID, id, in.LockVersion, in.EstimatedDelivery, time.Now())
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(requestView(request))
}

// Complete stamps the completion date.
func (s *Service) Complete(c *fiber.Ctx) error {
	return s.transition(c, func(agencyID uint, id uint64, lockVersion int, _ uint64) (*models.CustomRequest, error) {
		return customrequest.MarkCompleted(s.db, agencyID, id, lockVersion, time.Now())
	})
}

// Deliver moves a completed request into the terminal delivered status.
func (s *Service) Deliver(c *fiber.Ctx) error {
	return s.transition(c, func(agencyID uint, id uint64, lockVersion int, _ uint64) (*models.CustomRequest, error) {
		return customrequest.MarkDelivered(s.db, agencyID, id, lockVersion)
	})
}

// Delete removes a terminal request row. Live requests are cancelled through
// Deny instead so their history survives.
func (s *Service) Delete(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := s.requestID(c)
	if !ok {
		return badRequest(c, "invalid request id")
	}

	request, err := customrequest.Get(s.db, agencyID, id)
	if err != nil {
		return s.fail(c, err)
	}

	if !customs.IsTerminal(request.Status) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "only delivered or cancelled requests can be removed",
		})
	}

	if err := s.db.Delete(&models.CustomRequest{}, request.ID).Error; err != nil {
		log.Error().Err(err).Msg("delete custom request failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// transition runs a lifecycle action that only needs the lock version and actor.
func (s *Service) transition(
	c *fiber.Ctx,
	apply func(agencyID uint, id uint64, lockVersion int, actorID uint64) (*models.CustomRequest, error),
) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, ok := s.requestID(c)
	if !ok {
		return badRequest(c, "invalid request id")
	}

	var in struct {
		LockVersion int `json:"lock_version"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	member := auth.MemberFromContext(c)

	request, err := apply(agencyID, id, in.LockVersion, member.ID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(requestView(request))
}

func (s *Service) requestID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}

// fail maps domain errors onto HTTP statuses.
func (s *Service) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, customrequest.ErrRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, customs.ErrStaleRequest):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, customs.ErrInvalidTransition),
		errors.Is(err, customs.ErrTerminalStatus),
		errors.Is(err, customs.ErrAlreadyCompleted),
		errors.Is(err, customs.ErrEstimatedDeliveryRequired):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("custom request operation failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
