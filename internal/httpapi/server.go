// Package httpapi serves the session and summary operations as JSON over
// HTTP, plus a server-sent event stream of account changes.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/broadcast"
	"github.com/alexanderramin/earnclock/internal/domain"
)

// UserHeader carries the caller's identity, set by the auth gateway in
// front of this server.
const UserHeader = "X-User-ID"

// Config holds the API server configuration.
type Config struct {
	ListenAddr string
	// KeepAlive is the SSE comment interval.
	KeepAlive time.Duration
}

// SessionAPI is the session surface the server exposes.
type SessionAPI interface {
	app.StartSessionUseCase
	app.StopSessionUseCase
	app.PauseSessionUseCase
	app.ActiveSessionUseCase
	app.ListSessionsUseCase
	app.SetTargetUseCase
	GetSession(ctx context.Context, userID, sessionID string) (*app.SessionRow, error)
}

// SummaryStore is the shared, invalidated summary view.
type SummaryStore interface {
	Summary(ctx context.Context, userID string) (*app.Summary, error)
	Observe(ctx context.Context, userID string) (*broadcast.Subscription, error)
}

// Server is the JSON API server.
type Server struct {
	config   Config
	sessions SessionAPI
	store    SummaryStore
	clock    domain.Clock
	router   *mux.Router
	server   *http.Server
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, sessions SessionAPI, store SummaryStore, clock domain.Clock, logger zerolog.Logger) *Server {
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 15 * time.Second
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	s := &Server{
		config:   cfg,
		sessions: sessions,
		store:    store,
		clock:    clock,
		router:   mux.NewRouter(),
		logger:   logger.With().Str("component", "api").Logger(),
	}
	s.setupRoutes()

	// No WriteTimeout: the event stream is long-lived.
	s.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(UserMiddleware)

	api.HandleFunc("/sessions", s.handleStartSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/stop", s.handleStopSession).Methods("POST")
	api.HandleFunc("/sessions/active", s.handleActiveSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/pause", s.handlePause).Methods("POST")
	api.HandleFunc("/sessions/{id}/resume", s.handleResume).Methods("POST")

	api.HandleFunc("/summary", s.handleSummary).Methods("GET")
	api.HandleFunc("/users/{user}/summary", s.handleUserSummary).Methods("GET")
	api.HandleFunc("/ledger/target", s.handleSetTarget).Methods("PUT")

	api.HandleFunc("/events", s.handleEvents).Methods("GET")
}

// Start serves on ln, or on the configured address when ln is nil.
func (s *Server) Start(ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.config.ListenAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", s.config.ListenAddr, err)
		}
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting API server")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
