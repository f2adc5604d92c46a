package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/alphadocs/alphadocs/internal/auth"
	"github.com/alphadocs/alphadocs/internal/comments"
	"github.com/alphadocs/alphadocs/internal/db"
)

type fixture struct {
	router     chi.Router
	svc        *auth.Service
	store      *comments.Store
	db         *db.DB
	admin      *auth.User
	adminToken string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	svc := auth.NewService(d, "test-secret")
	store := comments.NewStore(d)
	r := chi.NewRouter()
	RegisterRoutes(r, svc, store, d)

	ctx := context.Background()
	admin, _, err := svc.Register(ctx, "root", "", "secret1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.SetApproval(ctx, admin.ID, true); err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	isAdmin := true
	if _, err := svc.SetPermissions(ctx, admin.ID, auth.Permissions{IsAdmin: &isAdmin}); err != nil {
		t.Fatalf("SetPermissions failed: %v", err)
	}
	admin, token, err := svc.Login(ctx, "root", "secret1", "9.9.9.9")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	return &fixture{router: r, svc: svc, store: store, db: d, admin: admin, adminToken: token}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) member(t *testing.T, username string) *auth.User {
	t.Helper()
	user, _, err := f.svc.Register(context.Background(), username, "", "secret1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}

func TestRequiresAdminToken(t *testing.T) {
	f := setup(t)

	if rec := f.do(t, http.MethodGet, "/api/admin/users", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", rec.Code)
	}

	// An ordinary approved user is rejected.
	user := f.member(t, "alice")
	if _, err := f.svc.SetApproval(context.Background(), user.ID, true); err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	_, token, err := f.svc.Login(context.Background(), "alice", "secret1", "9.9.9.8")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if rec := f.do(t, http.MethodGet, "/api/admin/users", token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d", rec.Code)
	}
}

func TestUserModeration(t *testing.T) {
	f := setup(t)
	user := f.member(t, "alice")

	rec := f.do(t, http.MethodPost, "/api/admin/users/"+user.ID+"/approve", f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", rec.Code, rec.Body)
	}
	var approved auth.User
	json.NewDecoder(rec.Body).Decode(&approved)
	if !approved.IsApproved {
		t.Error("user not approved")
	}

	rec = f.do(t, http.MethodPost, "/api/admin/users/"+user.ID+"/reject", f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("reject status = %d", rec.Code)
	}

	// Admin accounts cannot be rejected.
	rec = f.do(t, http.MethodPost, "/api/admin/users/"+f.admin.ID+"/reject", f.adminToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("reject admin status = %d", rec.Code)
	}

	// Flip the comment-review flag.
	rec = f.do(t, http.MethodPut, "/api/admin/users/"+user.ID+"/permissions", f.adminToken,
		map[string]bool{"comment_needs_approval": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("permissions status = %d", rec.Code)
	}
	var updated auth.User
	json.NewDecoder(rec.Body).Decode(&updated)
	if updated.CommentNeedsApproval {
		t.Error("comment review flag not cleared")
	}

	if rec = f.do(t, http.MethodPost, "/api/admin/users/missing/approve", f.adminToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d", rec.Code)
	}
}

func TestDeleteUserGuardsSelf(t *testing.T) {
	f := setup(t)
	user := f.member(t, "alice")

	rec := f.do(t, http.MethodDelete, "/api/admin/users/"+f.admin.ID, f.adminToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self delete status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/api/admin/users/"+user.ID, f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d: %s", rec.Code, rec.Body)
	}
	users, err := f.svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("%d users left, want only the admin", len(users))
	}
}

func TestCommentModeration(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := f.member(t, "alice")
	if _, err := f.svc.SetApproval(ctx, user.ID, true); err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	user.IsApproved = true
	c, err := f.store.Add(ctx, user, "a/x.md", "please review", "1.1.1.1", "ua")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	rec := f.do(t, http.MethodGet, "/api/admin/comments/pending", f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending status = %d", rec.Code)
	}
	var queue []comments.Comment
	json.NewDecoder(rec.Body).Decode(&queue)
	if len(queue) != 1 || queue[0].ID != c.ID {
		t.Fatalf("queue = %+v", queue)
	}

	rec = f.do(t, http.MethodPost, "/api/admin/comments/"+c.ID+"/approve", f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", rec.Code, rec.Body)
	}
	visible, _ := f.store.ListApproved(ctx, "a/x.md")
	if len(visible) != 1 {
		t.Errorf("approved comment not visible")
	}

	rec = f.do(t, http.MethodDelete, "/api/admin/comments/"+c.ID, f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec = f.do(t, http.MethodDelete, "/api/admin/comments/"+c.ID, f.adminToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d", rec.Code)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/api/admin/config", f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get config status = %d", rec.Code)
	}
	var cfg map[string]string
	json.NewDecoder(rec.Body).Decode(&cfg)
	if cfg[db.ConfigAutoApproveUsers] != "false" || cfg[db.ConfigAutoApproveComments] != "false" {
		t.Errorf("defaults = %v", cfg)
	}

	rec = f.do(t, http.MethodPut, "/api/admin/config", f.adminToken, map[string]string{
		db.ConfigAutoApproveUsers: "true",
		"unknown_key":             "ignored",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put config status = %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/api/admin/config", f.adminToken, nil)
	cfg = map[string]string{}
	json.NewDecoder(rec.Body).Decode(&cfg)
	if cfg[db.ConfigAutoApproveUsers] != "true" {
		t.Errorf("config after update = %v", cfg)
	}
	if _, ok := cfg["unknown_key"]; ok {
		t.Error("unknown key leaked into config")
	}
}
