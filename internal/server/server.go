// Package server exposes the simulation pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/domain"
	"github.com/wealthpath/planning-engine/internal/portfolio"
	"github.com/wealthpath/planning-engine/internal/store"
)

// Simulator is the pipeline as the HTTP layer sees it.
type Simulator interface {
	RunSimulation(ctx context.Context, req *domain.SimulationRequest) (*domain.SimulationResult, error)
	RunQuick(ctx context.Context, req *domain.SimulationRequest) (*domain.QuickResult, error)
}

// ResultArchive serves past results. Optional; routes return 404 when nil.
type ResultArchive interface {
	ListResults(ctx context.Context, userID string, limit int) ([]store.ResultSummary, error)
	GetResult(ctx context.Context, runID string) (*domain.SimulationResult, error)
}

// Server wires the HTTP routes to the pipeline.
type Server struct {
	provider  *assumptions.Provider
	simulator Simulator
	archive   ResultArchive
	log       zerolog.Logger
}

// New creates a server. archive may be nil when persistence is disabled.
func New(provider *assumptions.Provider, simulator Simulator, archive ResultArchive, log zerolog.Logger) *Server {
	return &Server{
		provider:  provider,
		simulator: simulator,
		archive:   archive,
		log:       log.With().Str("component", "server").Logger(),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/simulations", s.handleSimulate)
		r.Post("/simulations/quick", s.handleQuickSimulate)
		r.Get("/assets", s.handleAssets)
		r.Get("/portfolios/{risk}", s.handlePortfolio)
		r.Get("/results", s.handleListResults)
		r.Get("/results/{runID}", s.handleGetResult)
	})

	return r
}

// newMapper binds a portfolio mapper to the current assumption snapshot.
func (s *Server) newMapper() *portfolio.Mapper {
	return portfolio.NewMapper(s.provider.Snapshot(), s.log)
}

// requestLogger logs one line per request in the component logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
