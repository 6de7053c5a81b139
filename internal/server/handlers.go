package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wealthpath/planning-engine/internal/domain"
	"github.com/wealthpath/planning-engine/internal/store"
)

// errorResponse is the JSON error body. Details carries the per-field
// violation list for validation failures.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// writeError maps the domain error taxonomy onto HTTP status codes:
// validation 422, lookup misses 404, budget exhaustion 504, bad assumption
// data 502 and computation failures 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr *domain.ValidationError
		nfe  *domain.NotFoundError
		terr *domain.TimeoutError
		dqe  *domain.DataQualityError
	)
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "invalid request",
			Details: verr.Violations,
		})
	case errors.As(err, &nfe):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &terr):
		s.writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: err.Error()})
	case errors.As(err, &dqe):
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		s.log.Error().Err(err).Msg("Unhandled simulation error")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeRequest reads a simulation request from the body. The X-User-ID
// header wins over any user_id in the body, so gateway-injected identity is
// authoritative.
func (s *Server) decodeRequest(r *http.Request) (*domain.SimulationRequest, error) {
	var req domain.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verr := &domain.ValidationError{}
		verr.Add("body", "malformed JSON: "+err.Error())
		return nil, verr
	}
	if userID := r.Header.Get("X-User-ID"); userID != "" {
		req.UserID = userID
	}
	return &req, nil
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.simulator.RunSimulation(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuickSimulate(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.simulator.RunQuick(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"asset_classes": snap.AssetClasses(),
		"last_updated":  snap.LastUpdated(),
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	risk := domain.RiskTolerance(chi.URLParam(r, "risk"))

	mapper := s.newMapper()
	alloc, err := mapper.GetModelPortfolio(risk)
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics, err := mapper.CalculatePortfolioMetrics(alloc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"risk_tolerance":      risk,
		"allocation":          alloc,
		"metrics":             metrics,
		"etf_recommendations": mapper.GetETFRecommendations(alloc),
	})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, &domain.NotFoundError{Kind: "result archive", Name: "disabled"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := s.archive.ListResults(r.Context(), r.Header.Get("X-User-ID"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if results == nil {
		results = []store.ResultSummary{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, &domain.NotFoundError{Kind: "result archive", Name: "disabled"})
		return
	}
	res, err := s.archive.GetResult(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.provider.GetSummaryStatistics()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"asset_classes":       stats.NumAssetClasses,
		"assumptions_updated": stats.LastUpdated,
	})
}
