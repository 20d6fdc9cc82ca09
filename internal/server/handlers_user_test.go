package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bobmcallan/chitty/internal/app"
	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/services/analytics"
	"github.com/bobmcallan/chitty/internal/services/bid"
	"github.com/bobmcallan/chitty/internal/services/entry"
	"github.com/bobmcallan/chitty/internal/services/fund"
	"github.com/bobmcallan/chitty/internal/services/recalc"
	"github.com/bobmcallan/chitty/internal/storage"
)

// newTestServerWithStorage creates a Server backed by real storage in a
// temp directory. Tests call handler methods directly, so requests skip
// the middleware chain unless a test applies it explicitly.
func newTestServerWithStorage(t *testing.T) *Server {
	t.Helper()

	logger := common.NewLoggerFromConfig(common.LoggingConfig{Level: "disabled"})
	cfg := common.NewDefaultConfig()
	cfg.Storage.DataPath = t.TempDir()

	mgr, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		t.Fatalf("Failed to create storage manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	coordinator := recalc.NewCoordinator(mgr, logger)

	a := &app.App{
		Config:           cfg,
		Logger:           logger,
		Storage:          mgr,
		FundService:      fund.NewService(mgr, coordinator, logger),
		EntryService:     entry.NewService(mgr, coordinator, logger),
		BidService:       bid.NewService(mgr, coordinator, logger),
		AnalyticsService: analytics.NewService(mgr, coordinator, logger),
	}

	return &Server{app: a, logger: logger}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	return bytes.NewBuffer(data)
}

// decodeEnvelope unwraps a {"status":"ok","data":{...}} response body.
func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var resp struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("Expected status \"ok\", got %q", resp.Status)
	}
	return resp.Data
}

func decodeError(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp.Error
}

func createTestUser(t *testing.T, srv *Server, username, email, password, role string) {
	t.Helper()
	body := jsonBody(t, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"role":     role,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.handleUserCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Failed to create test user %q: status %d, body %s", username, rec.Code, rec.Body.String())
	}
}

func TestUserCreate(t *testing.T) {
	srv := newTestServerWithStorage(t)

	body := jsonBody(t, map[string]string{
		"username":         "ravi",
		"email":            "ravi@example.com",
		"password":         "secret123",
		"role":             "user",
		"display_currency": "INR",
		"reminder_day":     "5",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	srv.handleUserCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec.Body)
	if data["username"] != "ravi" {
		t.Errorf("Expected username ravi, got %v", data["username"])
	}
	if data["email"] != "ravi@example.com" {
		t.Errorf("Expected email ravi@example.com, got %v", data["email"])
	}
	if data["role"] != "user" {
		t.Errorf("Expected role user, got %v", data["role"])
	}

	// Preferences round-trip through the user GET.
	getReq := httptest.NewRequest(http.MethodGet, "/api/users/ravi", nil)
	getRec := httptest.NewRecorder()
	srv.routeUsers(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", getRec.Code)
	}
	got := decodeEnvelope(t, getRec.Body)
	if got["display_currency"] != "INR" {
		t.Errorf("Expected display_currency INR, got %v", got["display_currency"])
	}
	if got["reminder_day"] != "5" {
		t.Errorf("Expected reminder_day 5, got %v", got["reminder_day"])
	}
}

func TestUserCreate_MissingUsername(t *testing.T) {
	srv := newTestServerWithStorage(t)

	body := jsonBody(t, map[string]string{"password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	srv.handleUserCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body); msg != "username is required" {
		t.Errorf("Unexpected error message: %q", msg)
	}
}

func TestUserCreate_MissingPassword(t *testing.T) {
	srv := newTestServerWithStorage(t)

	body := jsonBody(t, map[string]string{"username": "ravi"})
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	srv.handleUserCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body); msg != "password is required" {
		t.Errorf("Unexpected error message: %q", msg)
	}
}

func TestUserCreate_Duplicate(t *testing.T) {
	srv := newTestServerWithStorage(t)
	createTestUser(t, srv, "ravi", "ravi@example.com", "secret123", "user")

	body := jsonBody(t, map[string]string{"username": "ravi", "password": "other456"})
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	srv.handleUserCreate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body); !strings.Contains(msg, "already exists") {
		t.Errorf("Expected already-exists error, got %q", msg)
	}
}

func TestUserCreate_InvalidRole(t *testing.T) {
	srv := newTestServerWithStorage(t)

	body := jsonBody(t, map[string]string{
		"username": "ravi",
		"password": "secret123",
		"role":     "superuser",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	srv.handleUserCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body); !strings.Contains(msg, "invalid role") {
		t.Errorf("Expected invalid-role error, got %q", msg)
	}
}

func TestUserCreate_DefaultRole(t *testing.T) {
	srv := newTestServerWithStorage(t)

	body := jsonBody(t, map[string]string{"username": "ravi", "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	srv.handleUserCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}
	data := decodeEnvelope(t, rec.Body)
	if data["role"] != "user" {
		t.Errorf("Expected default role user, got %v", data["role"])
	}
}

func TestUserCreate_ControlCharacters(t *testing.T) {
	srv := newTestServerWithStorage(t)

	body := jsonBody(t, map[string]string{"username": "ravi\x00kumar", "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	rec := httptest.NewRecorder()
	srv.handleUserCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body); !strings.Contains(msg, "control characters") {
		t.Errorf("Unexpected error message: %q", msg)
	}
}

func TestUserGet_NotFound(t *testing.T) {
	srv := newTestServerWithStorage(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/ghost", nil)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if msg := decodeError(t, rec.Body); msg != "user 'ghost' not found" {
		t.Errorf("Unexpected error message: %q", msg)
	}
}

func TestUserUpdate_EmailOnly(t *testing.T) {
	srv := newTestServerWithStorage(t)
	createTestUser(t, srv, "ravi", "old@example.com", "secret123", "admin")

	body := jsonBody(t, map[string]string{"email": "new@example.com"})
	req := httptest.NewRequest(http.MethodPut, "/api/users/ravi", body)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec.Body)
	if data["email"] != "new@example.com" {
		t.Errorf("Expected updated email, got %v", data["email"])
	}
	if data["role"] != "admin" {
		t.Errorf("Expected role preserved as admin, got %v", data["role"])
	}
}

func TestUserUpdate_InvalidRole(t *testing.T) {
	srv := newTestServerWithStorage(t)
	createTestUser(t, srv, "ravi", "ravi@example.com", "secret123", "user")

	body := jsonBody(t, map[string]string{"role": "owner"})
	req := httptest.NewRequest(http.MethodPut, "/api/users/ravi", body)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
}

func TestUserUpdate_Password(t *testing.T) {
	srv := newTestServerWithStorage(t)
	createTestUser(t, srv, "ravi", "ravi@example.com", "oldpass1", "user")

	body := jsonBody(t, map[string]string{"password": "newpass2"})
	req := httptest.NewRequest(http.MethodPut, "/api/users/ravi", body)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	user, err := srv.app.Storage.InternalStore().GetUser(req.Context(), "ravi")
	if err != nil {
		t.Fatalf("Failed to load user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpass2")); err != nil {
		t.Errorf("New password does not match stored hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("oldpass1")); err == nil {
		t.Error("Old password still matches after update")
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	srv := newTestServerWithStorage(t)

	body := jsonBody(t, map[string]string{"email": "ghost@example.com"})
	req := httptest.NewRequest(http.MethodPut, "/api/users/ghost", body)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
}

func TestUserDelete(t *testing.T) {
	srv := newTestServerWithStorage(t)
	createTestUser(t, srv, "ravi", "ravi@example.com", "secret123", "user")

	req := httptest.NewRequest(http.MethodDelete, "/api/users/ravi", nil)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/users/ravi", nil)
	getRec := httptest.NewRecorder()
	srv.routeUsers(getRec, getReq)
	if getRec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", getRec.Code)
	}
}

func TestUserDelete_NotFound(t *testing.T) {
	srv := newTestServerWithStorage(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/ghost", nil)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
}

func TestRouteUsers_EmptyUsername(t *testing.T) {
	srv := newTestServerWithStorage(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/", nil)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
}

func TestRouteUsers_MethodNotAllowed(t *testing.T) {
	srv := newTestServerWithStorage(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/users/ravi", nil)
	rec := httptest.NewRecorder()
	srv.routeUsers(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodDelete) {
		t.Errorf("Expected Allow header listing DELETE, got %q", allow)
	}
}
