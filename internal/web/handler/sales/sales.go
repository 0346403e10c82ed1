// Package sales provides handlers for sale submission, review and the
// agency revenue summary. Net amounts are derived from the commission
// policy on every read and never stored.
package sales

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
	"github.com/AgencyDesk/AgencyDesk/internal/db/controller/sale"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	saleslogic "github.com/AgencyDesk/AgencyDesk/internal/sales"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
)

const (
	// Path is the base path for sale management.
	Path = handler.RootPath + "sales"
)

// Service provides the sale endpoints.
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
		auth.RequirePermission(authService, access.PermSalesView),
		s.List,
	)
	app.Post(Path,
		auth.RequirePermission(authService, access.PermSalesCreate),
		s.Create,
	)
	app.Get(Path+"/summary",
		auth.RequirePermission(authService, access.PermSalesView),
		s.Summary,
	)
	app.Get(Path+"/:id",
		auth.RequirePermission(authService, access.PermSalesView),
		s.Get,
	)
	app.Put(Path+"/:id",
		auth.RequirePermission(authService, access.PermSalesEdit),
		s.Update,
	)
	app.Post(Path+"/:id/approve",
		auth.RequirePermission(authService, access.PermSalesApprove),
		auth.RequireManagerOrAbove(authService),
		s.Approve,
	)
}

// rate looks up the agency's effective commission rate.
func (s *Service) rate(agencyID uint) float64 {
	var agency models.Agency
	if err := s.db.First(&agency, agencyID).Error; err != nil {
		return saleslogic.RateFor(nil, s.cfg.Commission.DefaultRate)
	}

	return saleslogic.RateFor(&agency, s.cfg.Commission.DefaultRate)
}

// saleView renders a sale with its derived net amount. Pending and invalid
// sales carry no net revenue.
func saleView(row *models.Sale, rate float64) fiber.Map {
	view := fiber.Map{"sale": row}
	if row.Status == models.SaleStatusValid {
		view["net_amount"] = saleslogic.Net(row.GrossAmount, rate)
	}

	return view
}

// List returns the agency's sales, newest first. Members below manager
// level only see their own submissions.
func (s *Service) List(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	filter := sale.Filter{
		Status: models.SaleStatus(c.Query("status")),
	}

	if clientID, err := strconv.ParseUint(c.Query("client_id", "0"), 10, 64); err == nil {
		filter.ClientID = clientID
	}

	resolved := auth.AccessFromContext(c)
	if !resolved.IsManagerOrAbove() {
		filter.ChatterID = auth.MemberFromContext(c).ID
	}

	rows, err := sale.List(s.db, agencyID, filter)
	if err != nil {
		log.Error().Err(err).Msg("query sales failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"sales": rows})
}

// Get returns one sale.
func (s *Service) Get(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "invalid sale id")
	}

	row, err := sale.Get(s.db, agencyID, id)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(saleView(row, s.rate(agencyID)))
}

// Create submits a sale for review. The sale always enters pending,
// regardless of what the request body claims.
func (s *Service) Create(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	var in struct {
		ClientID       uint64    `json:"client_id"       validate:"required"`
		GrossAmount    float64   `json:"gross_amount"    validate:"gt=0"`
		SaleDate       time.Time `json:"sale_date"`
		ScreenshotPath string    `json:"screenshot_path" validate:"max=500"`
		Notes          string    `json:"notes"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	if in.SaleDate.IsZero() {
		in.SaleDate = time.Now()
	}

	row := models.Sale{
		AgencyID:       agencyID,
		ChatterID:      auth.MemberFromContext(c).ID,
		ClientID:       in.ClientID,
		GrossAmount:    in.GrossAmount,
		SaleDate:       in.SaleDate,
		ScreenshotPath: in.ScreenshotPath,
		Notes:          in.Notes,
	}

	if err := sale.Create(s.db, &row); err != nil {
		log.Error().Err(err).Msg("create sale failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"sale": row})
}

// Update edits a sale's submission details. The verdict fields are not
// touchable here; reviews go through Approve.
func (s *Service) Update(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "invalid sale id")
	}

	row, err := sale.Get(s.db, agencyID, id)
	if err != nil {
		return s.fail(c, err)
	}

	var in struct {
		GrossAmount    *float64   `json:"gross_amount"    validate:"omitempty,gt=0"`
		SaleDate       *time.Time `json:"sale_date"`
		ScreenshotPath *string    `json:"screenshot_path" validate:"omitempty,max=500"`
		Notes          *string    `json:"notes"`
	}

	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return badRequest(c, err.Error())
	}

	if in.GrossAmount != nil {
		row.GrossAmount = *in.GrossAmount
	}

	if in.SaleDate != nil {
		row.SaleDate = *in.SaleDate
	}

	if in.ScreenshotPath != nil {
		row.ScreenshotPath = *in.ScreenshotPath
	}

	if in.Notes != nil {
		row.Notes = *in.Notes
	}

	if err := s.db.Save(row).Error; err != nil {
		log.Error().Err(err).Msg("update sale failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(saleView(row, s.rate(agencyID)))
}

// Approve records the review verdict (valid or invalid) on a pending sale.
func (s *Service) Approve(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "invalid sale id")
	}

	var in struct {
		Verdict models.SaleStatus `json:"verdict"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	member := auth.MemberFromContext(c)

	row, err := sale.Approve(s.db, agencyID, id, member.ID, in.Verdict, time.Now())
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(saleView(row, s.rate(agencyID)))
}

// Summary returns the agency revenue aggregate: valid and pending counts,
// gross total and the derived net total.
func (s *Service) Summary(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	rate := s.rate(agencyID)

	summary, err := sale.Summarize(s.db, agencyID, rate)
	if err != nil {
		log.Error().Err(err).Msg("summarize sales failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"valid_count":     summary.ValidCount,
		"pending_count":   summary.PendingCount,
		"gross_total":     summary.GrossTotal,
		"net_total":       summary.NetTotal,
		"commission_rate": rate,
	})
}

func (s *Service) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, sale.ErrSaleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, saleslogic.ErrAlreadyReviewed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, saleslogic.ErrInvalidVerdict):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("sale operation failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
