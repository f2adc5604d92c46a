package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the auth endpoints under /api/auth.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handleRegister(svc))
		r.Post("/login", handleLogin(svc))
		r.Group(func(r chi.Router) {
			r.Use(svc.RequireUser)
			r.Get("/me", handleMe())
			r.Post("/change-password", handleChangePassword(svc))
		})
	})
}

func handleRegister(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, message, err := svc.Register(r.Context(), body.Username, body.Email, body.Password)
		if err != nil {
			writeError(w, registerStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": message,
			"user":    user,
		})
	}
}

func registerStatus(err error) int {
	switch {
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, ErrMissingFields):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func handleLogin(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, token, err := svc.Login(r.Context(), body.Username, body.Password, clientIP(r))
		if err != nil {
			writeError(w, loginStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": token,
			"user":         user,
		})
	}
}

func loginStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotApproved):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrMissingFields):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, UserFrom(r.Context()))
	}
}

func handleChangePassword(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user := UserFrom(r.Context())
		if err := svc.ChangePassword(r.Context(), user.ID, body.OldPassword, body.NewPassword); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, ErrInvalidCredentials) {
				status = http.StatusUnauthorized
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
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
