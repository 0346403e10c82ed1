// Package customrequest persists custom content requests and applies
// lifecycle transitions under an optimistic concurrency check.
package customrequest

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/customs"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

const (
	agencyIDQueryPattern  = "agency_id = ?"
	referenceQueryPattern = "agency_id = ? AND reference = ?"
	casQueryPattern       = "id = ? AND lock_version = ?"
)

var (
	// ErrRequestNotFound is returned when a request is not found in the caller's agency.
	ErrRequestNotFound = errors.New("custom request not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status   models.RequestStatus
	Priority models.RequestPriority
	ClientID uint64
}

// Get retrieves a request by ID, scoped to the caller's agency.
func Get(db *gorm.DB, agencyID uint, id uint64) (*models.CustomRequest, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var request models.CustomRequest
	result := db.Where(agencyIDQueryPattern, agencyID).First(&request, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, result.Error
	}

	return &request, nil
}

// GetByReference retrieves a request by its short reference code.
func GetByReference(db *gorm.DB, agencyID uint, reference string) (*models.CustomRequest, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var request models.CustomRequest
	result := db.Where(referenceQueryPattern, agencyID, reference).First(&request)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, result.Error
	}

	return &request, nil
}

// List retrieves the agency's requests, newest submissions first.
func List(db *gorm.DB, agencyID uint, filter Filter) ([]models.CustomRequest, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	tx := db.Where(agencyIDQueryPattern, agencyID)

	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}

	if filter.Priority != "" {
		tx = tx.Where("priority = ?", filter.Priority)
	}

	if filter.ClientID != 0 {
		tx = tx.Where("client_id = ?", filter.ClientID)
	}

	var requests []models.CustomRequest
	result := tx.Order("date_submitted DESC").Find(&requests)
	if result.Error != nil {
		return nil, result.Error
	}

	return requests, nil
}

// Create persists a fresh request in status pending.
func Create(db *gorm.DB, in customs.NewRequest, now time.Time) (*models.CustomRequest, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	request := customs.New(in, now)

	result := db.Create(&request)
	if result.Error != nil {
		return nil, result.Error
	}

	return &request, nil
}

// transition loads the request, applies a pure lifecycle function and writes
// the result back with a compare-and-swap on lock_version. A write that loses
// the race returns customs.ErrStaleRequest and leaves the row untouched.
func transition(
	db *gorm.DB,
	agencyID uint,
	id uint64,
	expectedVersion int,
	apply func(models.CustomRequest) (models.CustomRequest, error),
) (*models.CustomRequest, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	current, err := Get(db, agencyID, id)
	if err != nil {
		return nil, err
	}

	if current.LockVersion != expectedVersion {
		return nil, customs.ErrStaleRequest
	}

	next, err := apply(*current)
	if err != nil {
		return nil, err
	}

	next.LockVersion = expectedVersion + 1

	result := db.Model(&models.CustomRequest{}).
		Where(casQueryPattern, next.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(next)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, customs.ErrStaleRequest
	}

	return &next, nil
}

// Submit moves a pending request into the team review queue.
func Submit(db *gorm.DB, agencyID uint, id uint64, expectedVersion int) (*models.CustomRequest, error) {
	return transition(db, agencyID, id, expectedVersion, customs.Submit)
}

// TeamApprove records the team approval and hands the request to the client.
func TeamApprove(
	db *gorm.DB,
	agencyID uint,
	id uint64,
	expectedVersion int,
	actorID uint64,
	now time.Time,
) (*models.CustomRequest, error) {
	return transition(db, agencyID, id, expectedVersion, func(r models.CustomRequest) (models.CustomRequest, error) {
		return customs.TeamApprove(r, actorID, now)
	})
}

// Deny cancels the request, retaining the row with the denial stamped.
func Deny(
	db *gorm.DB,
	agencyID uint,
	id uint64,
	expectedVersion int,
	actorID uint64,
	reason string,
	now time.Time,
) (*models.CustomRequest, error) {
	return transition(db, agencyID, id, expectedVersion, func(r models.CustomRequest) (models.CustomRequest, error) {
		return customs.Deny(r, actorID, reason, now)
	})
}

// ClientApprove records the client confirmation and starts production.
func ClientApprove(
	db *gorm.DB,
	agencyID uint,
	id uint64,
	expectedVersion int,
	estimatedDelivery time.Time,
	now time.Time,
) (*models.CustomRequest, error) {
	return transition(db, agencyID, id, expectedVersion, func(r models.CustomRequest) (models.CustomRequest, error) {
		return customs.ClientApprove(r, estimatedDelivery, now)
	})
}

// MarkCompleted stamps the completion date.
func MarkCompleted(
	db *gorm.DB,
	agencyID uint,
	id uint64,
	expectedVersion int,
	now time.Time,
) (*models.CustomRequest, error) {
	return transition(db, agencyID, id, expectedVersion, func(r models.CustomRequest) (models.CustomRequest, error) {
		return customs.MarkCompleted(r, now)
	})
}

// MarkDelivered moves a completed request into the terminal delivered status.
func MarkDelivered(db *gorm.DB, agencyID uint, id uint64, expectedVersion int) (*models.CustomRequest, error) {
	return transition(db, agencyID, id, expectedVersion, customs.MarkDelivered)
}

// Update applies field edits without a status change. Edits share the
// compare-and-swap with transitions so a stale form cannot clobber a
// concurrent one.
func Update(
	db *gorm.DB,
	agencyID uint,
	id uint64,
	expectedVersion int,
	edit customs.Edit,
) (*models.CustomRequest, error) {
	return transition(db, agencyID, id, expectedVersion, func(r models.CustomRequest) (models.CustomRequest, error) {
		return customs.ApplyEdit(r, edit)
	})
}
