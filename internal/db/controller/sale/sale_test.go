package sale

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	"github.com/AgencyDesk/AgencyDesk/internal/sales"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Sale{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func createTestSale(t *testing.T, db *gorm.DB, gross float64) *models.Sale {
	t.Helper()

	s := &models.Sale{
		AgencyID:    1,
		ChatterID:   5,
		ClientID:    2,
		GrossAmount: gross,
		SaleDate:    testNow,
	}
	require.NoError(t, Create(db, s))

	return s
}

func TestCreateForcesPendingStatus(t *testing.T) {
	db := setupTestDB(t)

	actor := uint64(9)
	s := &models.Sale{
		AgencyID:    1,
		ChatterID:   5,
		ClientID:    2,
		GrossAmount: 100,
		SaleDate:    testNow,
		Status:      models.SaleStatusValid,
		ApprovedBy:  &actor,
		ApprovedAt:  &testNow,
	}
	require.NoError(t, Create(db, s))

	stored, err := Get(db, 1, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusPending, stored.Status)
	assert.Nil(t, stored.ApprovedBy)
	assert.Nil(t, stored.ApprovedAt)
}

func TestGetIsAgencyScoped(t *testing.T) {
	db := setupTestDB(t)
	s := createTestSale(t, db, 100)

	_, err := Get(db, 2, s.ID)
	require.ErrorIs(t, err, ErrSaleNotFound)

	_, err = Get(nil, 1, s.ID)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestListFilters(t *testing.T) {
	db := setupTestDB(t)

	first := createTestSale(t, db, 100)
	createTestSale(t, db, 50)

	_, err := Approve(db, 1, first.ID, 9, models.SaleStatusValid, testNow)
	require.NoError(t, err)

	all, err := List(db, 1, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	valid, err := List(db, 1, Filter{Status: models.SaleStatusValid})
	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.Equal(t, first.ID, valid[0].ID)

	byChatter, err := List(db, 1, Filter{ChatterID: 5})
	require.NoError(t, err)
	assert.Len(t, byChatter, 2)

	other, err := List(db, 2, Filter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestApproveIsRecordedOnce(t *testing.T) {
	db := setupTestDB(t)
	s := createTestSale(t, db, 100)

	approved, err := Approve(db, 1, s.ID, 9, models.SaleStatusValid, testNow)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusValid, approved.Status)

	stored, err := Get(db, 1, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusValid, stored.Status)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, uint64(9), *stored.ApprovedBy)

	_, err = Approve(db, 1, s.ID, 10, models.SaleStatusInvalid, testNow)
	require.ErrorIs(t, err, sales.ErrAlreadyReviewed)

	// the first verdict stands
	stored, err = Get(db, 1, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusValid, stored.Status)
	assert.Equal(t, uint64(9), *stored.ApprovedBy)
}

func TestApproveRejectsBogusVerdict(t *testing.T) {
	db := setupTestDB(t)
	s := createTestSale(t, db, 100)

	_, err := Approve(db, 1, s.ID, 9, models.SaleStatusPending, testNow)
	require.ErrorIs(t, err, sales.ErrInvalidVerdict)
}

func TestSummarizeCountsOnlyValidRevenue(t *testing.T) {
	db := setupTestDB(t)

	first := createTestSale(t, db, 100)
	second := createTestSale(t, db, 200)
	third := createTestSale(t, db, 50)
	createTestSale(t, db, 25)

	_, err := Approve(db, 1, first.ID, 9, models.SaleStatusValid, testNow)
	require.NoError(t, err)
	_, err = Approve(db, 1, second.ID, 9, models.SaleStatusValid, testNow)
	require.NoError(t, err)
	_, err = Approve(db, 1, third.ID, 9, models.SaleStatusInvalid, testNow)
	require.NoError(t, err)

	summary, err := Summarize(db, 1, sales.DefaultCommissionRate)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.ValidCount)
	assert.Equal(t, int64(1), summary.PendingCount)
	assert.Equal(t, 300.0, summary.GrossTotal)
	assert.InDelta(t, 240.0, summary.NetTotal, 1e-9)

	empty, err := Summarize(db, 2, sales.DefaultCommissionRate)
	require.NoError(t, err)
	assert.Zero(t, empty.GrossTotal)
	assert.Zero(t, empty.NetTotal)
}
