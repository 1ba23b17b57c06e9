package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/brightline-app/triage/internal/analysis"
	"github.com/brightline-app/triage/internal/ratelimit"
)

// Analyzer runs the provider-backed analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, *analysis.ProviderUsage, error)
	Compare(ctx context.Context, records []analysis.Record) (*analysis.ComparisonResult, *analysis.ProviderUsage, error)
}

// AnalysisStore persists finished analyses and loads them back for comparison.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, ownerID, platform string, result analysis.Result, usage analysis.ProviderUsage) (uuid.UUID, error)
	GetAnalysesByIDs(ctx context.Context, ownerID string, ids []uuid.UUID) ([]analysis.Record, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]analysis.Record, error)
}

// EventPublisher emits lifecycle events; a nil publisher disables them.
type EventPublisher interface {
	Publish(subject string, data any) error
}

type Server struct {
	router   *chi.Mux
	port     int
	logger   *slog.Logger
	analyzer Analyzer
	db       AnalysisStore
	limiter  ratelimit.Limiter
	events   EventPublisher
}

func NewServer(port int, apiToken string, analyzer Analyzer, db AnalysisStore, limiter ratelimit.Limiter, events EventPublisher, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		logger:   logger,
		analyzer: analyzer,
		db:       db,
		limiter:  limiter,
		events:   events,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/triage/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Use(OwnerMiddleware)
		r.Post("/analyze", s.analyze)
		r.Post("/compare", s.compare)
		r.Get("/analyses", s.listAnalyses)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "triage",
		"status":  "ready",
	})
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
