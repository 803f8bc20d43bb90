package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/starrymeet/availability/internal/rotation"
	"github.com/starrymeet/availability/internal/store"
)

// Server exposes the back-office surface: trigger a rotation run, inspect
// inventory stats, health check. It carries no auth; deployments keep it on
// a private listener.
type Server struct {
	runner *rotation.Runner
	store  store.Store
	logger *zap.Logger
}

func New(runner *rotation.Runner, store store.Store, logger *zap.Logger) *Server {
	return &Server{
		runner: runner,
		store:  store,
		logger: logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Rotation runs are minutes-long with large populations; the timeout
	// bounds a stuck store, not a normal run.
	r.Use(middleware.Timeout(15 * time.Minute))

	r.Post("/rotation/run", s.handleRun)
	r.Get("/availability/stats", s.handleStats)
	r.Get("/healthz", s.handleHealth)

	return r
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.Run(r.Context())
	if errors.Is(err, rotation.ErrRunInProgress) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("rotation run failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
