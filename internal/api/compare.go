package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/brightline-app/triage/internal/analysis"
	"github.com/brightline-app/triage/internal/provider"
	"github.com/brightline-app/triage/internal/store"
)

// CompareRequest is the payload for POST /api/v1/compare.
type CompareRequest struct {
	AnalysisIDs []string `json:"analysisIds"`
}

// CompareResponse is the success payload for POST /api/v1/compare.
type CompareResponse struct {
	Comparison    *analysis.ComparisonResult `json:"comparison"`
	AnalysisIDs   []string                   `json:"analysisIds"`
	ProviderUsage *analysis.ProviderUsage    `json:"providerUsage"`
}

// compare handles POST /api/v1/compare: load the caller's stored analyses and
// ask the provider chain for a cross-conversation trend read. Requests naming
// analyses the caller does not own come back 400, indistinguishable from
// nonexistent IDs.
func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)

	var req CompareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if n := len(req.AnalysisIDs); n < analysis.MinCompareAnalyses || n > analysis.MaxCompareAnalyses {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("expected %d-%d analysis ids, got %d",
			analysis.MinCompareAnalyses, analysis.MaxCompareAnalyses, n))
		return
	}

	ids := make([]uuid.UUID, 0, len(req.AnalysisIDs))
	for _, raw := range req.AnalysisIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid analysis id: "+raw)
			return
		}
		ids = append(ids, id)
	}

	records, err := s.db.GetAnalysesByIDs(r.Context(), owner, ids)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "one or more analyses not found")
			return
		}
		s.logger.Error("failed to load analyses", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load analyses")
		return
	}

	comparison, usage, err := s.analyzer.Compare(r.Context(), records)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrInvalidComparisonInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			var allFailed *provider.AllProvidersFailedError
			if errors.As(err, &allFailed) {
				writeError(w, http.StatusBadGateway, "all analysis providers failed")
				return
			}
			s.logger.Error("comparison failed", "owner", owner, "error", err)
			writeError(w, http.StatusInternalServerError, "comparison failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, CompareResponse{
		Comparison:    comparison,
		AnalysisIDs:   req.AnalysisIDs,
		ProviderUsage: usage,
	})
}
