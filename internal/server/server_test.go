package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/config"
	"github.com/alphadocs/alphadocs/internal/db"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	cfg := config.DefaultConfig()
	cfg.JWTSecret = "test-secret"
	cfg.ContentDir = t.TempDir()
	return New(cfg, d, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestFeatureRoutesMounted(t *testing.T) {
	s := testServer(t)

	// Stats visit endpoint is live.
	body, _ := json.Marshal(map[string]string{"path": "/docs/intro"})
	req := httptest.NewRequest(http.MethodPost, "/api/stats/visit", bytes.NewReader(body))
	req.RemoteAddr = "4.4.4.4:1000"
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("visit status = %d: %s", rec.Code, rec.Body)
	}

	// Auth registration is live.
	body, _ = json.Marshal(map[string]string{"username": "alice", "password": "secret1"})
	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("register status = %d: %s", rec.Code, rec.Body)
	}

	// Admin routes refuse anonymous callers.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("admin status = %d", rec.Code)
	}
}

func TestSPACatchAllBehindAPI(t *testing.T) {
	s := testServer(t)

	// Client routes land on the shell.
	req := httptest.NewRequest(http.MethodGet, "/docs/intro", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<html") {
		t.Errorf("shell fallback: status = %d", rec.Code)
	}

	// Unknown API endpoints stay 404.
	req = httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown api status = %d", rec.Code)
	}
}
