// Package customs implements the custom content request lifecycle.
//
// The lifecycle is a finite set of statuses:
//
//	pending -> pending_team_approval -> pending_client_approval -> in_progress -> completed -> delivered
//
// with cancelled reachable from every non-terminal status through denial.
// Transition functions are pure: they take a request value and return an
// updated copy or an error, never touching storage. Permission checks happen
// upstream (the access resolver gates the handlers); persistence and the
// optimistic concurrency check live in the customs controller.
package customs

import (
	"fmt"
	"time"

	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/uniuri"
)

// referenceLen is the length of the short request reference code.
const referenceLen = 10

// NewRequest carries the caller-supplied fields for a fresh request.
type NewRequest struct {
	AgencyID       uint
	ClientID       uint64
	FanName        string
	FanEmail       string
	Description    string
	ProposedAmount float64
	Priority       models.RequestPriority
	DateDue        *time.Time
	Notes          string
	ChatLink       string
	CreatedBy      uint64
}

// New creates a request in status pending with the submission date stamped.
func New(in NewRequest, now time.Time) models.CustomRequest {
	priority := in.Priority
	if priority == "" {
		priority = models.RequestPriorityMedium
	}

	return models.CustomRequest{
		AgencyID:       in.AgencyID,
		ClientID:       in.ClientID,
		Reference:      uniuri.NewLen(referenceLen),
		FanName:        in.FanName,
		FanEmail:       in.FanEmail,
		Description:    in.Description,
		ProposedAmount: in.ProposedAmount,
		Status:         models.RequestStatusPending,
		Priority:       priority,
		DateSubmitted:  now,
		DateDue:        in.DateDue,
		Notes:          in.Notes,
		ChatLink:       in.ChatLink,
		CreatedBy:      in.CreatedBy,
	}
}

// IsTerminal reports whether the status permits no further transitions.
func IsTerminal(status models.RequestStatus) bool {
	return status == models.RequestStatusDelivered || status == models.RequestStatusCancelled
}

// transitionError wraps ErrInvalidTransition with the offending statuses.
func transitionError(from models.RequestStatus, to models.RequestStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Submit moves a pending request into the team review queue.
func Submit(r models.CustomRequest) (models.CustomRequest, error) {
	if r.Status != models.RequestStatusPending {
		return r, transitionError(r.Status, models.RequestStatusPendingTeamApproval)
	}

	r.Status = models.RequestStatusPendingTeamApproval

	return r, nil
}

// TeamApprove records the team's approval and hands the request to the
// client for confirmation. Allowed from pending (direct approval) and from
// the team review queue.
func TeamApprove(r models.CustomRequest, actorID uint64, now time.Time) (models.CustomRequest, error) {
	if r.Status != models.RequestStatusPending && r.Status != models.RequestStatusPendingTeamApproval {
		return r, transitionError(r.Status, models.RequestStatusPendingClientApproval)
	}

	r.Status = models.RequestStatusPendingClientApproval
	r.TeamApprovedBy = &actorID
	r.TeamApprovedAt = &now

	return r, nil
}

// Deny cancels a request from any non-terminal status. The row is retained
// with the denier and reason stamped, so the history survives.
func Deny(r models.CustomRequest, actorID uint64, reason string, now time.Time) (models.CustomRequest, error) {
	if IsTerminal(r.Status) {
		return r, fmt.Errorf("%w: cannot deny %s", ErrTerminalStatus, r.Status)
	}

	r.Status = models.RequestStatusCancelled
	r.CancelledBy = &actorID
	r.CancelledAt = &now
	r.CancelReason = reason

	return r, nil
}

// ClientApprove records the client's confirmation and starts production.
// The caller must supply the estimated delivery date communicated to the fan.
func ClientApprove(r models.CustomRequest, estimatedDelivery time.Time, now time.Time) (models.CustomRequest, error) {
	if r.Status != models.RequestStatusPendingClientApproval {
		return r, transitionError(r.Status, models.RequestStatusInProgress)
	}

	if estimatedDelivery.IsZero() {
		return r, ErrEstimatedDeliveryRequired
	}

	r.Status = models.RequestStatusInProgress
	r.ClientApprovedAt = &now
	r.EstimatedDelivery = &estimatedDelivery

	return r, nil
}

// MarkCompleted stamps the completion date and moves the request to
// completed. Every other field is left untouched.
func MarkCompleted(r models.CustomRequest, now time.Time) (models.CustomRequest, error) {
	if IsTerminal(r.Status) {
		return r, fmt.Errorf("%w: cannot complete %s", ErrTerminalStatus, r.Status)
	}

	if r.Status == models.RequestStatusCompleted {
		return r, ErrAlreadyCompleted
	}

	r.Status = models.RequestStatusCompleted
	r.DateCompleted = &now

	return r, nil
}

// MarkDelivered moves a completed request into the terminal delivered status.
func MarkDelivered(r models.CustomRequest) (models.CustomRequest, error) {
	if r.Status != models.RequestStatusCompleted {
		return r, transitionError(r.Status, models.RequestStatusDelivered)
	}

	r.Status = models.RequestStatusDelivered

	return r, nil
}

// Edit carries optional field updates applied without a status change.
type Edit struct {
	FanName        *string
	FanEmail       *string
	Description    *string
	ProposedAmount *float64
	AmountPaid     *float64
	Priority       *models.RequestPriority
	DateDue        *time.Time
	Notes          *string
	ChatLink       *string
}

// ApplyEdit updates free-form fields on a request. Terminal requests are
// frozen and reject edits.
func ApplyEdit(r models.CustomRequest, e Edit) (models.CustomRequest, error) {
	if IsTerminal(r.Status) {
		return r, fmt.Errorf("%w: cannot edit %s", ErrTerminalStatus, r.Status)
	}

	if e.FanName != nil {
		r.FanName = *e.FanName
	}

	if e.FanEmail != nil {
		r.FanEmail = *e.FanEmail
	}

	if e.Description != nil {
		r.Description = *e.Description
	}

	if e.ProposedAmount != nil {
		r.ProposedAmount = *e.ProposedAmount
	}

	if e.AmountPaid != nil {
		r.AmountPaid = *e.AmountPaid
	}

	if e.Priority != nil {
		r.Priority = *e.Priority
	}

	if e.DateDue != nil {
		r.DateDue = e.DateDue
	}

	if e.Notes != nil {
		r.Notes = *e.Notes
	}

	if e.ChatLink != nil {
		r.ChatLink = *e.ChatLink
	}

	return r, nil
}

// PendingBalance computes the outstanding balance on a request.
// Overpayment is tolerated: the balance never goes negative.
func PendingBalance(proposed, paid float64) float64 {
	balance := proposed - paid
	if balance < 0 {
		return 0
	}

	return balance
}
