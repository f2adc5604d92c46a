package comments

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alphadocs/alphadocs/internal/auth"
)

// RegisterRoutes mounts the public comment endpoints. Reading a thread
// is open; posting requires a logged-in, approved user.
func RegisterRoutes(r chi.Router, store *Store, svc *auth.Service) {
	r.Get("/api/comments", handleList(store))
	r.With(svc.RequireUser).Post("/api/comments", handleAdd(store))
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articlePath := r.URL.Query().Get("article_path")
		if articlePath == "" {
			writeError(w, http.StatusBadRequest, "article_path required")
			return
		}
		comments, err := store.ListApproved(r.Context(), articlePath)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, comments)
	}
}

func handleAdd(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ArticlePath string `json:"article_path"`
			Content     string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user := auth.UserFrom(r.Context())
		comment, err := store.Add(r.Context(), user, body.ArticlePath, body.Content,
			clientIP(r), r.UserAgent())
		if err != nil {
			writeError(w, addStatus(err), err.Error())
			return
		}

		message := "Comment published"
		if comment.Status == StatusPending {
			message = "Comment submitted"
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": message,
			"comment": comment,
		})
	}
}

func addStatus(err error) int {
	switch {
	case errors.Is(err, ErrDailyLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNotApproved):
		return http.StatusForbidden
	case errors.Is(err, ErrMissingFields):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
