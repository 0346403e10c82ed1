// Package sale persists chatter-submitted sales and their review verdicts.
package sale

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/sales"
)

const (
	agencyIDQueryPattern = "agency_id = ?"
	pendingQueryPattern  = "id = ? AND status = ?"
)

var (
	// ErrSaleNotFound is returned when a sale is not found in the caller's agency.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status    models.SaleStatus
	ChatterID uint64
	ClientID  uint64
}

// Get retrieves a sale by ID, scoped to the caller's agency.
func Get(db *gorm.DB, agencyID uint, id uint64) (*models.Sale, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var s models.Sale
	result := db.Where(agencyIDQueryPattern, agencyID).First(&s, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, result.Error
	}

	return &s, nil
}

// List retrieves the agency's sales, newest first.
func List(db *gorm.DB, agencyID uint, filter Filter) ([]models.Sale, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	tx := db.Where(agencyIDQueryPattern, agencyID)

	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}

	if filter.ChatterID != 0 {
		tx = tx.Where("chatter_id = ?", filter.ChatterID)
	}

	if filter.ClientID != 0 {
		tx = tx.Where("client_id = ?", filter.ClientID)
	}

	var rows []models.Sale
	result := tx.Order("sale_date DESC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// Create persists a new sale in status pending.
func Create(db *gorm.DB, s *models.Sale) error {
	if db == nil {
		return ErrDBNil
	}

	s.Status = models.SaleStatusPending
	s.ApprovedBy = nil
	s.ApprovedAt = nil

	return db.Create(s).Error
}

// Approve records a review verdict on a pending sale. The write is guarded
// by the pending status so two concurrent reviewers cannot both win; the
// loser gets sales.ErrAlreadyReviewed.
func Approve(
	db *gorm.DB,
	agencyID uint,
	id uint64,
	actorID uint64,
	verdict models.SaleStatus,
	now time.Time,
) (*models.Sale, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	current, err := Get(db, agencyID, id)
	if err != nil {
		return nil, err
	}

	next, err := sales.Approve(*current, actorID, verdict, now)
	if err != nil {
		return nil, err
	}

	result := db.Model(&models.Sale{}).
		Where(pendingQueryPattern, next.ID, models.SaleStatusPending).
		Updates(map[string]interface{}{
			"status":      next.Status,
			"approved_by": next.ApprovedBy,
			"approved_at": next.ApprovedAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, sales.ErrAlreadyReviewed
	}

	return &next, nil
}

// Summary is an agency revenue aggregate over valid sales.
type Summary struct {
	ValidCount   int64
	PendingCount int64
	GrossTotal   float64
	NetTotal     float64
}

// Summarize aggregates the agency's sales. Only valid rows count toward
// revenue; the net total is derived with the given commission rate.
func Summarize(db *gorm.DB, agencyID uint, rate float64) (*Summary, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var summary Summary

	err := db.Model(&models.Sale{}).
		Where(agencyIDQueryPattern, agencyID).
		Where("status = ?", models.SaleStatusValid).
		Count(&summary.ValidCount).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Sale{}).
		Where(agencyIDQueryPattern, agencyID).
		Where("status = ?", models.SaleStatusPending).
		Count(&summary.PendingCount).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Sale{}).
		Where(agencyIDQueryPattern, agencyID).
		Where("status = ?", models.SaleStatusValid).
		Select("COALESCE(SUM(gross_amount), 0)").
		Scan(&summary.GrossTotal).Error
	if err != nil {
		return nil, err
	}

	summary.NetTotal = sales.Net(summary.GrossTotal, rate)

	return &summary, nil
}
