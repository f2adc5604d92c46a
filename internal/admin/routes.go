// Package admin exposes the moderation console endpoints: user
// approval, comment review, and the mutable site configuration. Every
// route requires an admin token.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alphadocs/alphadocs/internal/auth"
	"github.com/alphadocs/alphadocs/internal/comments"
	"github.com/alphadocs/alphadocs/internal/db"
)

// configKeys are the site settings the console may read and write.
var configKeys = []string{
	db.ConfigAutoApproveUsers,
	db.ConfigAutoApproveComments,
}

// RegisterRoutes mounts the admin endpoints under /api/admin.
func RegisterRoutes(r chi.Router, svc *auth.Service, store *comments.Store, database *db.DB) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(svc.RequireAdmin)

		r.Get("/users", handleListUsers(svc))
		r.Post("/users/{id}/approve", handleApproval(svc, true))
		r.Post("/users/{id}/reject", handleApproval(svc, false))
		r.Put("/users/{id}/permissions", handlePermissions(svc))
		r.Delete("/users/{id}", handleDeleteUser(svc))

		r.Get("/comments/pending", handlePendingComments(store))
		r.Post("/comments/{id}/approve", handleCommentStatus(store, comments.StatusApproved))
		r.Post("/comments/{id}/reject", handleCommentStatus(store, comments.StatusRejected))
		r.Delete("/comments/{id}", handleDeleteComment(store))

		r.Get("/config", handleGetConfig(database))
		r.Put("/config", handlePutConfig(database))
	})
}

func handleListUsers(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.ListUsers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func handleApproval(svc *auth.Service, approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := svc.SetApproval(r.Context(), chi.URLParam(r, "id"), approved)
		if err != nil {
			writeError(w, userStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func handlePermissions(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var perms auth.Permissions
		if err := json.NewDecoder(r.Body).Decode(&perms); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := svc.SetPermissions(r.Context(), chi.URLParam(r, "id"), perms)
		if err != nil {
			writeError(w, userStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func handleDeleteUser(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")
		if self := auth.UserFrom(r.Context()); self != nil && self.ID == userID {
			writeError(w, http.StatusBadRequest, "cannot delete yourself")
			return
		}
		if err := svc.DeleteUser(r.Context(), userID); err != nil {
			writeError(w, userStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
	}
}

func userStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrAdminImmutable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func handlePendingComments(store *comments.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := store.Pending(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

func handleCommentStatus(store *comments.Store, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviewer := auth.UserFrom(r.Context())
		comment, err := store.SetStatus(r.Context(), chi.URLParam(r, "id"), status, reviewer.ID)
		if err != nil {
			writeError(w, commentStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, comment)
	}
}

func handleDeleteComment(store *comments.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, commentStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted"})
	}
}

func commentStatus(err error) int {
	if errors.Is(err, comments.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func handleGetConfig(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := map[string]string{}
		for _, key := range configKeys {
			value, err := database.GetConfig(r.Context(), key)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			out[key] = value
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handlePutConfig(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var values map[string]string
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		for _, key := range configKeys {
			value, ok := values[key]
			if !ok {
				continue
			}
			if err := database.SetConfig(r.Context(), key, value); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Configuration updated"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
