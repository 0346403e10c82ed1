package sales

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
	websess "github.com/AgencyDesk/AgencyDesk/internal/web/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	err = db.AutoMigrate(
		&models.Agency{},
		&models.TeamMember{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.Client{},
		&models.Sale{},
	)
	if err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Webserver: config.Webserver{
			Session: config.Session{ExpiryTime: time.Minute},
		},
		Commission: config.Commission{DefaultRate: 0.20},
	}
}

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

func initSessionStore() {
	websess.Init(&testStorage{data: make(map[string][]byte)})
}

// setup builds the app with the sales handler and a seeded agency.
func setup(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	app := fiber.New()

	initSessionStore()

	authService := auth.NewService(db)

	var s Service
	s.Init(app, newTestConfig(), db, authService)

	rate := 0.30
	agency := models.Agency{ID: 1, Name: "Test Agency", Slug: "test-agency", CommissionRate: &rate, Active: true}
	if err := db.Create(&agency).Error; err != nil {
		t.Fatalf("failed to create agency: %v", err)
	}

	return app, db
}

// createMember seeds a member on agency 1 with the given legacy role.
func createMember(t *testing.T, db *gorm.DB, username string, legacyRole models.LegacyRole) *models.TeamMember {
	t.Helper()

	agencyID := uint(1)
	member := models.TeamMember{
		AgencyID:    &agencyID,
		Active:      true,
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
		LegacyRole:  legacyRole,
		AuthSource:  models.AuthSourceLocal,
	}

	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to create member: %v", err)
	}

	return &member
}

// openSession writes a session for the member and returns the cookie value.
func openSession(t *testing.T, member *models.TeamMember) string {
	t.Helper()

	sessionID, err := websess.GenerateSessionID()
	if err != nil {
		t.Fatalf("failed to generate session id: %v", err)
	}

	data := &websess.Data{Member: *member}
	if err := data.Write(sessionID, time.Minute); err != nil {
		t.Fatalf("failed to write session: %v", err)
	}

	return sessionID
}

func perform(t *testing.T, app *fiber.App, method, target, sessionID, body string) *http.Response {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: websess.CookieName, Value: sessionID})
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestCreate_ForcesPending(t *testing.T) {
	app, db := setup(t)
	chatter := createMember(t, db, "chatter", models.LegacyRoleChatter)
	sessionID := openSession(t, chatter)

	resp := perform(t, app, http.MethodPost, Path, sessionID,
		`{"client_id": 7, "gross_amount": 100, "notes": "first"}`)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", resp.StatusCode)
	}

	var body struct {
		Sale models.Sale `json:"sale"`
	}
	decode(t, resp, &body)

	if body.Sale.Status != models.SaleStatusPending {
		t.Fatalf("expected pending status, got %q", body.Sale.Status)
	}

	if body.Sale.ChatterID != chatter.ID {
		t.Fatalf("expected chatter %d as submitter, got %d", chatter.ID, body.Sale.ChatterID)
	}
}

func TestApprove_RequiresPermission(t *testing.T) {
	app, db := setup(t)
	chatter := createMember(t, db, "chatter", models.LegacyRoleChatter)
	manager := createMember(t, db, "manager", models.LegacyRoleManager)

	chatterSession := openSession(t, chatter)
	managerSession := openSession(t, manager)

	sale := models.Sale{
		AgencyID: 1, ChatterID: chatter.ID, ClientID: 7,
		GrossAmount: 200, Status: models.SaleStatusPending, SaleDate: time.Now(),
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("failed to create sale: %v", err)
	}

	target := fmt.Sprintf("%s/%d/approve", Path, sale.ID)

	// Chatters cannot approve their own sales.
	resp := perform(t, app, http.MethodPost, target, chatterSession, `{"verdict":"valid"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 Forbidden for chatter, got %d", resp.StatusCode)
	}

	// Unauthenticated requests bounce.
	resp = perform(t, app, http.MethodPost, target, "", `{"verdict":"valid"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", resp.StatusCode)
	}

	// Managers may approve. The net amount derives from the agency override.
	resp = perform(t, app, http.MethodPost, target, managerSession, `{"verdict":"valid"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK for manager, got %d", resp.StatusCode)
	}

	var body struct {
		Sale      models.Sale `json:"sale"`
		NetAmount float64     `json:"net_amount"`
	}
	decode(t, resp, &body)

	if body.Sale.Status != models.SaleStatusValid {
		t.Fatalf("expected valid status, got %q", body.Sale.Status)
	}

	if body.NetAmount != 140 { // 200 gross at the 30% agency override
		t.Fatalf("expected net 140, got %v", body.NetAmount)
	}

	// The verdict is final: a second review loses.
	resp = perform(t, app, http.MethodPost, target, managerSession, `{"verdict":"invalid"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 Conflict on second review, got %d", resp.StatusCode)
	}

	var stored models.Sale
	if err := db.First(&stored, sale.ID).Error; err != nil {
		t.Fatalf("failed to reload sale: %v", err)
	}

	if stored.Status != models.SaleStatusValid {
		t.Fatalf("first verdict must stand, got %q", stored.Status)
	}
}

func TestApprove_RequiresManagerHierarchy(t *testing.T) {
	app, db := setup(t)

	// A custom role can grant the approve permission, but verdicts still
	// require manager-level hierarchy.
	perm := models.Permission{
		Code:     access.PermSalesApprove,
		Category: "sales",
		Kind:     models.PermissionKindAction,
	}
	if err := db.Create(&perm).Error; err != nil {
		t.Fatalf("failed to create permission: %v", err)
	}

	agencyID := uint(1)
	junior := models.Role{
		AgencyID:       &agencyID,
		Name:           "Junior Reviewer",
		Slug:           "junior-reviewer",
		HierarchyLevel: 10,
	}
	if err := db.Create(&junior).Error; err != nil {
		t.Fatalf("failed to create role: %v", err)
	}

	if err := db.Create(&models.RolePermission{RoleID: junior.ID, PermissionID: perm.ID}).Error; err != nil {
		t.Fatalf("failed to grant permission: %v", err)
	}

	reviewer := createMember(t, db, "reviewer", models.LegacyRoleChatter)
	if err := db.Model(reviewer).Update("role_id", junior.ID).Error; err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	sale := models.Sale{
		AgencyID: 1, ChatterID: 1, ClientID: 7,
		GrossAmount: 80, Status: models.SaleStatusPending, SaleDate: time.Now(),
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("failed to create sale: %v", err)
	}

	target := fmt.Sprintf("%s/%d/approve", Path, sale.ID)

	resp := perform(t, app, http.MethodPost, target, openSession(t, reviewer), `{"verdict":"valid"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 Forbidden below manager level, got %d", resp.StatusCode)
	}

	var stored models.Sale
	if err := db.First(&stored, sale.ID).Error; err != nil {
		t.Fatalf("failed to reload sale: %v", err)
	}

	if stored.Status != models.SaleStatusPending {
		t.Fatalf("sale must stay pending, got %q", stored.Status)
	}
}

func TestApprove_BogusVerdict(t *testing.T) {
	app, db := setup(t)
	manager := createMember(t, db, "manager", models.LegacyRoleManager)
	managerSession := openSession(t, manager)

	sale := models.Sale{
		AgencyID: 1, ChatterID: 1, ClientID: 7,
		GrossAmount: 50, Status: models.SaleStatusPending, SaleDate: time.Now(),
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("failed to create sale: %v", err)
	}

	target := fmt.Sprintf("%s/%d/approve", Path, sale.ID)

	resp := perform(t, app, http.MethodPost, target, managerSession, `{"verdict":"maybe"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bogus verdict, got %d", resp.StatusCode)
	}
}

func TestList_ChatterSeesOnlyOwnSales(t *testing.T) {
	app, db := setup(t)
	chatter := createMember(t, db, "chatter", models.LegacyRoleChatter)
	other := createMember(t, db, "other", models.LegacyRoleChatter)
	manager := createMember(t, db, "manager", models.LegacyRoleManager)

	for _, s := range []models.Sale{
		{AgencyID: 1, ChatterID: chatter.ID, ClientID: 7, GrossAmount: 10, Status: models.SaleStatusPending, SaleDate: time.Now()},
		{AgencyID: 1, ChatterID: other.ID, ClientID: 7, GrossAmount: 20, Status: models.SaleStatusPending, SaleDate: time.Now()},
	} {
		sale := s
		if err := db.Create(&sale).Error; err != nil {
			t.Fatalf("failed to create sale: %v", err)
		}
	}

	var body struct {
		Sales []models.Sale `json:"sales"`
	}

	resp := perform(t, app, http.MethodGet, Path, openSession(t, chatter), "")
	decode(t, resp, &body)

	if len(body.Sales) != 1 || body.Sales[0].ChatterID != chatter.ID {
		t.Fatalf("expected only the chatter's own sale, got %v", body.Sales)
	}

	resp = perform(t, app, http.MethodGet, Path, openSession(t, manager), "")
	decode(t, resp, &body)

	if len(body.Sales) != 2 {
		t.Fatalf("expected manager to see both sales, got %d", len(body.Sales))
	}
}

func TestSummary_UsesAgencyOverrideRate(t *testing.T) {
	app, db := setup(t)
	manager := createMember(t, db, "manager", models.LegacyRoleManager)
	managerSession := openSession(t, manager)

	for _, s := range []models.Sale{
		{AgencyID: 1, ChatterID: 1, ClientID: 7, GrossAmount: 100, Status: models.SaleStatusValid, SaleDate: time.Now()},
		{AgencyID: 1, ChatterID: 1, ClientID: 7, GrossAmount: 300, Status: models.SaleStatusValid, SaleDate: time.Now()},
		{AgencyID: 1, ChatterID: 1, ClientID: 7, GrossAmount: 999, Status: models.SaleStatusPending, SaleDate: time.Now()},
		{AgencyID: 1, ChatterID: 1, ClientID: 7, GrossAmount: 500, Status: models.SaleStatusInvalid, SaleDate: time.Now()},
	} {
		sale := s
		if err := db.Create(&sale).Error; err != nil {
			t.Fatalf("failed to create sale: %v", err)
		}
	}

	resp := perform(t, app, http.MethodGet, Path+"/summary", managerSession, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	var body struct {
		ValidCount     int64   `json:"valid_count"`
		PendingCount   int64   `json:"pending_count"`
		GrossTotal     float64 `json:"gross_total"`
		NetTotal       float64 `json:"net_total"`
		CommissionRate float64 `json:"commission_rate"`
	}
	decode(t, resp, &body)

	if body.ValidCount != 2 || body.PendingCount != 1 {
		t.Fatalf("expected 2 valid and 1 pending, got %d and %d", body.ValidCount, body.PendingCount)
	}

	if body.GrossTotal != 400 {
		t.Fatalf("expected gross 400, got %v", body.GrossTotal)
	}

	if body.CommissionRate != 0.30 {
		t.Fatalf("expected the 0.30 agency override, got %v", body.CommissionRate)
	}

	if body.NetTotal != 280 { // 400 gross at 30%
		t.Fatalf("expected net 280, got %v", body.NetTotal)
	}
}
