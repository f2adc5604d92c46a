package cmd

import (
	"context"
	"testing"

	"github.com/alphadocs/alphadocs/internal/auth"
	"github.com/alphadocs/alphadocs/internal/db"
)

func TestCreateAdmin(t *testing.T) {
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory failed: %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	if err := createAdmin(ctx, d, "root", "root@example.com", "secret1"); err != nil {
		t.Fatalf("createAdmin failed: %v", err)
	}
	if err := createAdmin(ctx, d, "root", "", "secret1"); err == nil {
		t.Error("duplicate username accepted")
	}

	// The account can log in immediately and carries the admin bit.
	svc := auth.NewService(d, "test-secret")
	user, token, err := svc.Login(ctx, "root", "secret1", "8.8.8.8")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("no token issued")
	}
	if !user.IsAdmin || !user.IsApproved || user.CommentNeedsApproval {
		t.Errorf("admin flags = %+v", user)
	}
}
