package customs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgencyDesk/AgencyDesk/internal/customs"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

var (
	now      = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	delivery = time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)
)

func newPendingRequest() models.CustomRequest {
	return customs.New(customs.NewRequest{
		AgencyID:       1,
		ClientID:       2,
		FanName:        "Sam",
		FanEmail:       "sam@example.com",
		Description:    "custom video",
		ProposedAmount: 100,
		CreatedBy:      3,
	}, now)
}

func TestNewRequestDefaults(t *testing.T) {
	r := newPendingRequest()

	assert.Equal(t, models.RequestStatusPending, r.Status)
	assert.Equal(t, models.RequestPriorityMedium, r.Priority)
	assert.Equal(t, now, r.DateSubmitted)
	assert.Len(t, r.Reference, 10)
	assert.NotEqual(t, r.Reference, customs.New(customs.NewRequest{}, now).Reference)
}

func TestHappyPathThroughDelivery(t *testing.T) {
	r := newPendingRequest()

	r, err := customs.Submit(r)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPendingTeamApproval, r.Status)

	r, err = customs.TeamApprove(r, 42, now)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPendingClientApproval, r.Status)
	require.NotNil(t, r.TeamApprovedBy)
	assert.Equal(t, uint64(42), *r.TeamApprovedBy)
	require.NotNil(t, r.TeamApprovedAt)
	assert.Equal(t, now, *r.TeamApprovedAt)

	r, err = customs.ClientApprove(r, delivery, now)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusInProgress, r.Status)
	require.NotNil(t, r.EstimatedDelivery)
	assert.Equal(t, delivery, *r.EstimatedDelivery)
	require.NotNil(t, r.ClientApprovedAt)

	r, err = customs.MarkCompleted(r, now)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, r.Status)
	require.NotNil(t, r.DateCompleted)
	assert.Equal(t, now, *r.DateCompleted)

	r, err = customs.MarkDelivered(r)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusDelivered, r.Status)
	assert.True(t, customs.IsTerminal(r.Status))
}

func TestTeamApproveSkipsQueueFromPending(t *testing.T) {
	r, err := customs.TeamApprove(newPendingRequest(), 42, now)

	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPendingClientApproval, r.Status)
}

func TestTransitionsRejectWrongSourceStatus(t *testing.T) {
	tests := []struct {
		name   string
		status models.RequestStatus
		apply  func(models.CustomRequest) (models.CustomRequest, error)
	}{
		{
			name:   "submit from in_progress",
			status: models.RequestStatusInProgress,
			apply:  customs.Submit,
		},
		{
			name:   "team approve from in_progress",
			status: models.RequestStatusInProgress,
			apply: func(r models.CustomRequest) (models.CustomRequest, error) {
				return customs.TeamApprove(r, 42, now)
			},
		},
		{
			name:   "client approve from in_progress is not reapplied",
			status: models.RequestStatusInProgress,
			apply: func(r models.CustomRequest) (models.CustomRequest, error) {
				return customs.ClientApprove(r, delivery, now)
			},
		},
		{
			name:   "client approve from pending",
			status: models.RequestStatusPending,
			apply: func(r models.CustomRequest) (models.CustomRequest, error) {
				return customs.ClientApprove(r, delivery, now)
			},
		},
		{
			name:   "deliver from in_progress",
			status: models.RequestStatusInProgress,
			apply:  customs.MarkDelivered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPendingRequest()
			r.Status = tt.status

			got, err := tt.apply(r)

			require.ErrorIs(t, err, customs.ErrInvalidTransition)
			assert.Equal(t, tt.status, got.Status, "a rejected transition must not change the status")
		})
	}
}

func TestClientApproveRequiresEstimatedDelivery(t *testing.T) {
	r := newPendingRequest()
	r.Status = models.RequestStatusPendingClientApproval

	_, err := customs.ClientApprove(r, time.Time{}, now)

	require.ErrorIs(t, err, customs.ErrEstimatedDeliveryRequired)
}

func TestDenyRetainsHistory(t *testing.T) {
	for _, status := range []models.RequestStatus{
		models.RequestStatusPending,
		models.RequestStatusPendingTeamApproval,
		models.RequestStatusPendingClientApproval,
		models.RequestStatusInProgress,
		models.RequestStatusCompleted,
	} {
		r := newPendingRequest()
		r.Status = status

		got, err := customs.Deny(r, 9, "duplicate order", now)

		require.NoError(t, err, "deny from %s", status)
		assert.Equal(t, models.RequestStatusCancelled, got.Status)
		require.NotNil(t, got.CancelledBy)
		assert.Equal(t, uint64(9), *got.CancelledBy)
		assert.Equal(t, "duplicate order", got.CancelReason)
		assert.Equal(t, got.Reference, r.Reference, "the record survives cancellation")
	}
}

func TestTerminalStatusesAreFrozen(t *testing.T) {
	for _, status := range []models.RequestStatus{
		models.RequestStatusDelivered,
		models.RequestStatusCancelled,
	} {
		r := newPendingRequest()
		r.Status = status

		_, err := customs.Deny(r, 9, "", now)
		assert.ErrorIs(t, err, customs.ErrTerminalStatus, "deny from %s", status)

		_, err = customs.MarkCompleted(r, now)
		assert.ErrorIs(t, err, customs.ErrTerminalStatus, "complete from %s", status)

		_, err = customs.ApplyEdit(r, customs.Edit{})
		assert.ErrorIs(t, err, customs.ErrTerminalStatus, "edit from %s", status)
	}
}

func TestMarkCompletedTouchesOnlyStatusAndDate(t *testing.T) {
	r := newPendingRequest()
	r.Status = models.RequestStatusInProgress
	r.EstimatedDelivery = &delivery

	got, err := customs.MarkCompleted(r, now)
	require.NoError(t, err)

	require.NotNil(t, got.DateCompleted)
	assert.Equal(t, now, *got.DateCompleted)

	// everything but status and completion date is untouched
	got.Status = r.Status
	got.DateCompleted = r.DateCompleted
	assert.Equal(t, r, got)

	// completing twice is rejected, not silently reapplied
	done := r
	done.Status = models.RequestStatusCompleted
	_, err = customs.MarkCompleted(done, now)
	assert.ErrorIs(t, err, customs.ErrAlreadyCompleted)
}

func TestApplyEditUpdatesOnlyProvidedFields(t *testing.T) {
	r := newPendingRequest()

	amount := 150.0
	notes := "updated notes"

	got, err := customs.ApplyEdit(r, customs.Edit{
		ProposedAmount: &amount,
		Notes:          &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, amount, got.ProposedAmount)
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, r.FanName, got.FanName)
	assert.Equal(t, r.Status, got.Status, "edits never change the status")
}

func TestPendingBalance(t *testing.T) {
	tests := []struct {
		name     string
		proposed float64
		paid     float64
		want     float64
	}{
		{"unpaid", 100, 0, 100},
		{"partially paid", 100, 40, 60},
		{"exactly paid", 100, 100, 0},
		{"overpaid clamps to zero", 100, 150, 0},
		{"zero proposed", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, customs.PendingBalance(tt.proposed, tt.paid))
		})
	}
}
