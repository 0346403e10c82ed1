package models

import "time"

// Client represents a tracked client relationship within an agency.
type Client struct {
	ID       uint64 `gorm:"primaryKey"`
	AgencyID uint   `gorm:"index;not null"`
	// Agency is the owning agency (loaded via foreign key).
	Agency *Agency `gorm:"foreignKey:AgencyID"`
	// DisplayName is the client's name as shown in lists.
	DisplayName string `gorm:"size:100;not null"`
	// Handle is the client's platform handle.
	Handle string `gorm:"size:100"`
	// AssignedChatterID is the team member currently working this client.
	AssignedChatterID *uint64
	Active            bool   `gorm:"default:true"`
	Notes             string `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the database table name for the Client model.
func (Client) TableName() string {
	return "clients"
}
