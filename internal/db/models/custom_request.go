package models

import "time"

// RequestStatus is the lifecycle status of a custom content request.
type RequestStatus string

const (
	// RequestStatusPending is the initial status of a freshly created request.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusPendingTeamApproval means the request entered the team review queue.
	RequestStatusPendingTeamApproval RequestStatus = "pending_team_approval"
	// RequestStatusPendingClientApproval means the team approved and the client must confirm.
	RequestStatusPendingClientApproval RequestStatus = "pending_client_approval"
	// RequestStatusInProgress means the client confirmed and production started.
	RequestStatusInProgress RequestStatus = "in_progress"
	// RequestStatusCompleted means the content is produced but not yet handed over.
	RequestStatusCompleted RequestStatus = "completed"
	// RequestStatusDelivered is a terminal status: the content reached the client.
	RequestStatusDelivered RequestStatus = "delivered"
	// RequestStatusCancelled is a terminal status reached through denial or
	// cancellation. The row is retained for audit history.
	RequestStatusCancelled RequestStatus = "cancelled"
)

// RequestPriority ranks custom requests in the work queue.
type RequestPriority string

const (
	// RequestPriorityLow is for requests without a time constraint.
	RequestPriorityLow RequestPriority = "low"
	// RequestPriorityMedium is the default priority.
	RequestPriorityMedium RequestPriority = "medium"
	// RequestPriorityHigh is for requests that should jump the queue.
	RequestPriorityHigh RequestPriority = "high"
	// RequestPriorityUrgent is for requests with a hard deadline.
	RequestPriorityUrgent RequestPriority = "urgent"
)

// CustomRequest represents a client's order for custom content.
// Status transitions are produced by the customs package; every write is
// guarded by the LockVersion compare-and-swap in the customs controller.
type CustomRequest struct {
	// ID is the unique identifier for the request.
	ID uint64 `gorm:"primaryKey"`
	// AgencyID is the owning agency.
	AgencyID uint `gorm:"index;not null"`
	// ClientID is the client the content is for.
	ClientID uint64 `gorm:"index;not null"`
	// Client is the associated client (loaded via foreign key).
	Client *Client `gorm:"foreignKey:ClientID"`
	// Reference is a short random code used to identify the request in chats.
	Reference string `gorm:"unique;size:20;not null"`
	// FanName is the requesting fan's display name.
	FanName string `gorm:"size:100"`
	// FanEmail is the requesting fan's contact address.
	FanEmail string `gorm:"size:255"`
	// Description is the free-text content brief.
	Description string `gorm:"type:text"`
	// ProposedAmount is the quoted price for the request.
	ProposedAmount float64
	// AmountPaid is the amount recorded as paid so far. Overpayment is
	// tolerated; balances are computed on read and clamped at zero.
	AmountPaid float64
	// Status is the lifecycle status.
	Status RequestStatus `gorm:"type:varchar(30);not null;index"`
	// Priority ranks the request in the work queue.
	Priority RequestPriority `gorm:"type:varchar(10);not null;default:'medium'"`
	// DateSubmitted is when the request was created.
	DateSubmitted time.Time
	// DateDue is the optional hard deadline.
	DateDue *time.Time
	// EstimatedDelivery is set on client approval.
	EstimatedDelivery *time.Time
	// DateCompleted is set when the content is marked completed.
	DateCompleted *time.Time
	// Notes is free-text working notes.
	Notes string `gorm:"type:text"`
	// ChatLink optionally points at the conversation the request came from.
	ChatLink string `gorm:"size:500"`
	// TeamApprovedBy is the member who approved on behalf of the team.
	TeamApprovedBy *uint64
	// TeamApprovedAt is when the team approval happened.
	TeamApprovedAt *time.Time
	// ClientApprovedAt is when the client confirmed the order.
	ClientApprovedAt *time.Time
	// CancelledBy is the member who denied or cancelled the request.
	CancelledBy *uint64
	// CancelledAt is when the request was denied or cancelled.
	CancelledAt *time.Time
	// CancelReason is the free-text denial reason.
	CancelReason string `gorm:"size:500"`
	// CreatedBy is the member who created the request.
	CreatedBy uint64 `gorm:"not null"`
	// LockVersion implements optimistic concurrency on status transitions.
	LockVersion int `gorm:"not null;default:0"`
	// CreatedAt is the timestamp when the row was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the row was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the CustomRequest model.
// This overrides GORM's default pluralized table naming.
func (CustomRequest) TableName() string {
	return "custom_requests"
}
