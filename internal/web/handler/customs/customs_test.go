package customs

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
		&models.CustomRequest{},
	)
	if err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
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

func setup(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	app := fiber.New()

	websess.Init(&testStorage{data: make(map[string][]byte)})

	cfg := &config.Config{
		Webserver: config.Webserver{
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}

	var s Service
	s.Init(app, cfg, db, auth.NewService(db))

	agency := models.Agency{ID: 1, Name: "Test Agency", Slug: "test-agency", Active: true}
	if err := db.Create(&agency).Error; err != nil {
		t.Fatalf("failed to create agency: %v", err)
	}

	return app, db
}

func openSession(t *testing.T, db *gorm.DB, username string, legacyRole models.LegacyRole) string {
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

	sessionID, err := websess.GenerateSessionID()
	if err != nil {
		t.Fatalf("failed to generate session id: %v", err)
	}

	data := &websess.Data{Member: member}
	if err := data.Write(sessionID, time.Minute); err != nil {
		t.Fatalf("failed to write session: %v", err)
	}

	return sessionID
}

func perform(t *testing.T, app *fiber.App, method, target, sessionID, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
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

type requestResponse struct {
	Request        models.CustomRequest `json:"request"`
	PendingBalance float64              `json:"pending_balance"`
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

func TestLifecycle_OverHTTP(t *testing.T) {
	app, db := setup(t)
	managerSession := openSession(t, db, "manager", models.LegacyRoleManager)

	// Create
	resp := perform(t, app, http.MethodPost, Path, managerSession,
		`{"client_id": 7, "description": "custom video", "proposed_amount": 150, "fan_name": "Sam"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d", resp.StatusCode)
	}

	var created requestResponse
	decode(t, resp, &created)

	if created.Request.Status != models.RequestStatusPending {
		t.Fatalf("expected pending status, got %q", created.Request.Status)
	}

	if created.PendingBalance != 150 {
		t.Fatalf("expected balance 150, got %v", created.PendingBalance)
	}

	base := fmt.Sprintf("%s/%d", Path, created.Request.ID)

	// Submit at version 0
	resp = perform(t, app, http.MethodPost, base+"/submit", managerSession, `{"lock_version": 0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on submit, got %d", resp.StatusCode)
	}

	var out requestResponse
	decode(t, resp, &out)

	if out.Request.Status != models.RequestStatusPendingTeamApproval || out.Request.LockVersion != 1 {
		t.Fatalf("expected pending_team_approval at version 1, got %q v%d",
			out.Request.Status, out.Request.LockVersion)
	}

	// Approve, client-approve, complete, deliver, echoing the version back
	resp = perform(t, app, http.MethodPost, base+"/approve", managerSession, `{"lock_version": 1}`)
	decode(t, resp, &out)

	if out.Request.Status != models.RequestStatusPendingClientApproval {
		t.Fatalf("expected pending_client_approval, got %q", out.Request.Status)
	}

	resp = perform(t, app, http.MethodPost, base+"/client-approve", managerSession,
		`{"lock_version": 2, "estimated_delivery": "2026-09-15T00:00:00Z"}`)
	decode(t, resp, &out)

	if out.Request.Status != models.RequestStatusInProgress {
		t.Fatalf("expected in_progress, got %q", out.Request.Status)
	}

	resp = perform(t, app, http.MethodPost, base+"/complete", managerSession, `{"lock_version": 3}`)
	decode(t, resp, &out)

	if out.Request.Status != models.RequestStatusCompleted || out.Request.DateCompleted == nil {
		t.Fatalf("expected completed with date stamped, got %q", out.Request.Status)
	}

	resp = perform(t, app, http.MethodPost, base+"/deliver", managerSession, `{"lock_version": 4}`)
	decode(t, resp, &out)

	if out.Request.Status != models.RequestStatusDelivered || out.Request.LockVersion != 5 {
		t.Fatalf("expected delivered at version 5, got %q v%d",
			out.Request.Status, out.Request.LockVersion)
	}
}

func TestStaleLockVersion_Conflicts(t *testing.T) {
	app, db := setup(t)
	managerSession := openSession(t, db, "manager", models.LegacyRoleManager)

	request := models.CustomRequest{
		AgencyID: 1, ClientID: 7, Reference: "REF0000001",
		Description: "x", Status: models.RequestStatusPending,
		Priority: models.RequestPriorityMedium, DateSubmitted: time.Now(),
		CreatedBy: 1, LockVersion: 0,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	base := fmt.Sprintf("%s/%d", Path, request.ID)

	// First writer wins at version 0.
	resp := perform(t, app, http.MethodPost, base+"/submit", managerSession, `{"lock_version": 0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on first submit, got %d", resp.StatusCode)
	}

	// Second writer still holds version 0 and must get a conflict.
	resp = perform(t, app, http.MethodPost, base+"/approve", managerSession, `{"lock_version": 0}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 Conflict for stale version, got %d", resp.StatusCode)
	}

	var stored models.CustomRequest
	if err := db.First(&stored, request.ID).Error; err != nil {
		t.Fatalf("failed to reload request: %v", err)
	}

	if stored.Status != models.RequestStatusPendingTeamApproval || stored.LockVersion != 1 {
		t.Fatalf("stale write must not touch the row, got %q v%d", stored.Status, stored.LockVersion)
	}
}

func TestInvalidTransition_Unprocessable(t *testing.T) {
	app, db := setup(t)
	managerSession := openSession(t, db, "manager", models.LegacyRoleManager)

	request := models.CustomRequest{
		AgencyID: 1, ClientID: 7, Reference: "REF0000002",
		Description: "x", Status: models.RequestStatusPending,
		Priority: models.RequestPriorityMedium, DateSubmitted: time.Now(),
		CreatedBy: 1, LockVersion: 0,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// Deliver straight from pending is not a legal transition.
	target := fmt.Sprintf("%s/%d/deliver", Path, request.ID)

	resp := perform(t, app, http.MethodPost, target, managerSession, `{"lock_version": 0}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for illegal transition, got %d", resp.StatusCode)
	}
}

func TestDeny_RetainsRow(t *testing.T) {
	app, db := setup(t)
	managerSession := openSession(t, db, "manager", models.LegacyRoleManager)

	request := models.CustomRequest{
		AgencyID: 1, ClientID: 7, Reference: "REF0000003",
		Description: "x", Status: models.RequestStatusPendingTeamApproval,
		Priority: models.RequestPriorityMedium, DateSubmitted: time.Now(),
		CreatedBy: 1, LockVersion: 2,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	target := fmt.Sprintf("%s/%d/deny", Path, request.ID)

	resp := perform(t, app, http.MethodPost, target, managerSession,
		`{"lock_version": 2, "reason": "out of scope"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on deny, got %d", resp.StatusCode)
	}

	var stored models.CustomRequest
	if err := db.First(&stored, request.ID).Error; err != nil {
		t.Fatalf("denied request must stay in the database: %v", err)
	}

	if stored.Status != models.RequestStatusCancelled || stored.CancelReason != "out of scope" {
		t.Fatalf("expected cancelled with reason, got %q %q", stored.Status, stored.CancelReason)
	}

	if stored.CancelledBy == nil || stored.CancelledAt == nil {
		t.Fatalf("expected denier and timestamp stamped")
	}
}

func TestDelete_OnlyTerminalRows(t *testing.T) {
	app, db := setup(t)
	// Deletion needs customs.delete, held by admins.
	adminSession := openSession(t, db, "admin", models.LegacyRoleAdmin)

	live := models.CustomRequest{
		AgencyID: 1, ClientID: 7, Reference: "REF0000004",
		Description: "x", Status: models.RequestStatusInProgress,
		Priority: models.RequestPriorityMedium, DateSubmitted: time.Now(),
		CreatedBy: 1,
	}
	if err := db.Create(&live).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp := perform(t, app, http.MethodDelete, fmt.Sprintf("%s/%d", Path, live.ID), adminSession, "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 deleting a live request, got %d", resp.StatusCode)
	}

	done := models.CustomRequest{
		AgencyID: 1, ClientID: 7, Reference: "REF0000005",
		Description: "x", Status: models.RequestStatusDelivered,
		Priority: models.RequestPriorityMedium, DateSubmitted: time.Now(),
		CreatedBy: 1,
	}
	if err := db.Create(&done).Error; err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp = perform(t, app, http.MethodDelete, fmt.Sprintf("%s/%d", Path, done.ID), adminSession, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 deleting a delivered request, got %d", resp.StatusCode)
	}
}
