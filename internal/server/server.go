// Package server assembles the backend HTTP API: chi router, shared
// middleware, CORS, and the feature packages mounted through their
// RegisterRoutes functions.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/admin"
	"github.com/alphadocs/alphadocs/internal/auth"
	"github.com/alphadocs/alphadocs/internal/comments"
	"github.com/alphadocs/alphadocs/internal/config"
	"github.com/alphadocs/alphadocs/internal/db"
	"github.com/alphadocs/alphadocs/internal/site"
	"github.com/alphadocs/alphadocs/internal/stats"
)

// Server is the alphadocs backend.
type Server struct {
	cfg        *config.Config
	db         *db.DB
	log        *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New wires the feature packages onto a configured router. The database
// must already be migrated.
func New(cfg *config.Config, database *db.DB, log *zap.Logger) *Server {
	s := &Server{cfg: cfg, db: database, log: log}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	authSvc := auth.NewService(s.db, s.cfg.JWTSecret)
	commentStore := comments.NewStore(s.db)
	statsStore := stats.NewStore(s.db)

	stats.RegisterRoutes(r, statsStore)
	auth.RegisterRoutes(r, authSvc)
	comments.RegisterRoutes(r, commentStore, authSvc)
	admin.RegisterRoutes(r, authSvc, commentStore, s.db)

	// Static site last: it owns the catch-all.
	site.RegisterRoutes(r, site.Options{
		ContentDir: s.cfg.ContentDir,
		CDNBaseURL: s.cfg.CDNBaseURL,
	}, s.log)

	return r
}

// Router returns the assembled router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port and blocks until the
// listener stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("alphadocs server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
