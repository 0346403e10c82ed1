package models

import "time"

// SaleStatus is the validation status of a chatter-submitted sale.
type SaleStatus string

const (
	// SaleStatusPending awaits review by a manager or above.
	SaleStatusPending SaleStatus = "pending"
	// SaleStatusValid is a terminal status: the sale counts toward revenue.
	SaleStatusValid SaleStatus = "valid"
	// SaleStatusInvalid is a terminal status: the sale is rejected.
	SaleStatusInvalid SaleStatus = "invalid"
)

// Sale represents a chatter-submitted revenue event awaiting validation.
// Net revenue is never stored; it is always derived from the gross amount
// and the commission policy at read time.
type Sale struct {
	// ID is the unique identifier for the sale.
	ID uint64 `gorm:"primaryKey"`
	// AgencyID is the owning agency.
	AgencyID uint `gorm:"index;not null"`
	// ChatterID is the member who submitted the sale.
	ChatterID uint64 `gorm:"index;not null"`
	// ClientID is the client the sale belongs to.
	ClientID uint64 `gorm:"index;not null"`
	// GrossAmount is the gross revenue of the sale.
	GrossAmount float64 `gorm:"not null"`
	// SaleDate is when the sale happened.
	SaleDate time.Time
	// ScreenshotPath is the object storage key of the proof screenshot,
	// following the {saleID}/{prefix}-{timestamp}-{index}.{ext} convention.
	ScreenshotPath string `gorm:"size:500"`
	// Notes is free-text context for the reviewer.
	Notes string `gorm:"type:text"`
	// Status is the validation status (pending, valid or invalid).
	Status SaleStatus `gorm:"type:varchar(10);not null;index;default:'pending'"`
	// ApprovedBy is the reviewing member once the sale left pending.
	ApprovedBy *uint64
	// ApprovedAt is when the review verdict was recorded.
	ApprovedAt *time.Time
	// CreatedAt is the timestamp when the row was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the row was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Sale model.
// This overrides GORM's default pluralized table naming.
func (Sale) TableName() string {
	return "sales"
}
