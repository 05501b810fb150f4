// Package server exposes persisted evaluation results over HTTP for
// read-only review: listing records, per-student reports, and a
// websocket feed of results recorded while the server is running.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/michaelbrown/proctor/internal/config"
	"github.com/michaelbrown/proctor/internal/storage"
)

// Server is the HTTP server for the proctor results API.
type Server struct {
	cfg    *config.Config
	store  storage.Store
	hub    *hub
	router chi.Router
	http   *http.Server
}

// New creates a new Server.
func New(cfg *config.Config, store storage.Store) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		hub:    newHub(),
		router: chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		r.Get("/results", s.handleListResults)
		r.Get("/results/{id}", s.handleGetResult)
		r.Get("/students/{roll}", s.handleStudentReport)

		// WebSocket (no JSON content-type)
		r.Get("/ws", s.handleWebSocket)
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins listening on the given port and starts the result
// watcher that feeds websocket clients. Blocks until Shutdown.
func (s *Server) Start(port int) error {
	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
	}

	watcherCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.watchResults(watcherCtx)

	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
