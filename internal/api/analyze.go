package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/brightline-app/triage/internal/analysis"
	"github.com/brightline-app/triage/internal/bus"
	"github.com/brightline-app/triage/internal/chatparse"
	"github.com/brightline-app/triage/internal/platform"
	"github.com/brightline-app/triage/internal/provider"
)

// maxBodyBytes bounds the upload; a full year of chat export fits comfortably.
const maxBodyBytes = 512 << 10

const sampleLineLimit = 3

// AnalyzeRequest is the payload for POST /api/v1/analyze. Platform, when
// set, overrides detection as the metadata tag; parsing behavior is the same
// either way.
type AnalyzeRequest struct {
	Text     string `json:"text"`
	Platform string `json:"platform,omitempty"`
}

// ChatStats summarizes the parsed conversation alongside the analysis.
type ChatStats struct {
	TotalMessages int                 `json:"totalMessages"`
	Participants  []string            `json:"participants"`
	DateRange     chatparse.DateRange `json:"dateRange"`
}

// AnalyzeResponse is the success payload for POST /api/v1/analyze.
type AnalyzeResponse struct {
	ID               uuid.UUID               `json:"id"`
	PlatformMetadata platform.Metadata       `json:"platformMetadata"`
	ChatStats        ChatStats               `json:"chatStats"`
	Analysis         *analysis.Result        `json:"analysis"`
	ProviderUsage    *analysis.ProviderUsage `json:"providerUsage"`
}

// analyze handles POST /api/v1/analyze: parse the export, run the provider
// chain, persist the result, and emit a completion event.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)

	if !s.limiter.Allow(owner) {
		writeError(w, http.StatusTooManyRequests, "analysis rate limit exceeded, try again later")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req AnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	text := req.Text
	if chatparse.LooksLikeHTML(text) {
		text = chatparse.FlattenHTML(text)
	}

	meta := platform.Detect(text)
	if req.Platform != "" {
		meta = platform.Metadata{
			Platform:       platform.Platform(req.Platform),
			Confidence:     1.0,
			DetectedFormat: "caller_specified",
		}
	}
	chat := chatparse.Parse(text)

	if chat.TotalMessages == 0 {
		parseErr := &chatparse.ParseEmptyError{
			Hint:        "export the conversation as plain text with one 'date, time - sender: message' line per message",
			Platform:    string(meta.Platform),
			SampleLines: chatparse.SampleLines(text, sampleLineLimit),
		}
		s.logger.Info("nothing parseable in upload", "owner", owner, "platform", meta.Platform)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":       parseErr.Error(),
			"hint":        parseErr.Hint,
			"platform":    parseErr.Platform,
			"sampleLines": parseErr.SampleLines,
		})
		return
	}

	result, usage, err := s.analyzer.Analyze(r.Context(), analysis.Request{
		ChatText:      chatparse.ExtractText(chat),
		Platform:      string(meta.Platform),
		Participants:  chat.Participants,
		TotalMessages: chat.TotalMessages,
		DateRange:     chat.DateRange,
		Sample:        chatparse.RecentSample(chat, chatparse.RecentSampleSize),
	})
	if err != nil {
		var allFailed *provider.AllProvidersFailedError
		if errors.As(err, &allFailed) {
			s.publish(bus.SubjectAnalysisFailed, bus.AnalysisFailedEvent{
				OwnerID:   owner,
				Platform:  string(meta.Platform),
				Providers: allFailed.Attempted,
			})
			writeError(w, http.StatusBadGateway, "all analysis providers failed")
			return
		}
		s.logger.Error("analysis failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	id, err := s.db.SaveAnalysis(r.Context(), owner, string(meta.Platform), *result, *usage)
	if err != nil {
		s.logger.Error("failed to store analysis", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store analysis")
		return
	}

	s.publish(bus.SubjectAnalysisCompleted, bus.AnalysisCompletedEvent{
		AnalysisID: id.String(),
		OwnerID:    owner,
		Platform:   string(meta.Platform),
		RiskScore:  result.RiskScore,
		RedFlags:   len(result.RedFlags),
		Provider:   usage.Provider,
	})

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		ID:               id,
		PlatformMetadata: meta,
		ChatStats: ChatStats{
			TotalMessages: chat.TotalMessages,
			Participants:  chat.Participants,
			DateRange:     chat.DateRange,
		},
		Analysis:      result,
		ProviderUsage: usage,
	})
}

// listAnalyses handles GET /api/v1/analyses.
func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.ListRecent(r.Context(), ownerFrom(r), 50)
	if err != nil {
		s.logger.Error("failed to list analyses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if records == nil {
		records = []analysis.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analyses": records,
		"count":    len(records),
	})
}

// publish emits a bus event when a publisher is configured; delivery failures
// are logged, never surfaced to the caller.
func (s *Server) publish(subject string, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, event); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
