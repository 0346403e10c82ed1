// Package dashboard serves the agency overview: revenue aggregate, custom
// request pipeline counts and the active client count.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/db/controller/sale"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/sales"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler"
)

const (
	// Path is the path to the dashboard endpoint.
	Path = handler.RootPath + "dashboard"
)

// Service serves the dashboard aggregate.
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
		auth.RequirePermission(authService, access.PermDashboardView),
		s.Get,
	)
}

// Get returns the agency overview.
func (s *Service) Get(c *fiber.Ctx) error {
	agencyID, ok := handler.AgencyScope(c)
	if !ok {
		return handler.ErrMissingAgencyScope(c)
	}

	var agency models.Agency
	if err := s.db.First(&agency, agencyID).Error; err != nil {
		log.Error().Err(err).Uint("agency_id", agencyID).Msg("load agency failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	rate := sales.RateFor(&agency, s.cfg.Commission.DefaultRate)

	summary, err := sale.Summarize(s.db, agencyID, rate)
	if err != nil {
		log.Error().Err(err).Msg("summarize sales failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	requestCounts, err := s.requestCounts(agencyID)
	if err != nil {
		log.Error().Err(err).Msg("count custom requests failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	var clientCount int64
	err = s.db.Model(&models.Client{}).
		Where("agency_id = ? AND active = ?", agencyID, true).
		Count(&clientCount).Error
	if err != nil {
		log.Error().Err(err).Msg("count clients failed")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"agency": fiber.Map{
			"id":   agency.ID,
			"name": agency.Name,
		},
		"sales": fiber.Map{
			"valid_count":     summary.ValidCount,
			"pending_count":   summary.PendingCount,
			"gross_total":     summary.GrossTotal,
			"net_total":       summary.NetTotal,
			"commission_rate": rate,
		},
		"custom_requests": requestCounts,
		"active_clients":  clientCount,
	})
}

// requestCounts groups the agency's custom requests by status.
func (s *Service) requestCounts(agencyID uint) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}

	err := s.db.Model(&models.CustomRequest{}).
		Select("status, COUNT(*) AS total").
		Where("agency_id = ?", agencyID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}
