package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/brightline-app/triage/internal/analysis"
	"github.com/brightline-app/triage/internal/ratelimit"
)

type fakeAnalyzer struct {
	result     *analysis.Result
	comparison *analysis.ComparisonResult
	usage      *analysis.ProviderUsage
	err        error
	lastReq    analysis.Request
	lastRecs   []analysis.Record
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req analysis.Request) (*analysis.Result, *analysis.ProviderUsage, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.result, f.usage, nil
}

func (f *fakeAnalyzer) Compare(_ context.Context, records []analysis.Record) (*analysis.ComparisonResult, *analysis.ProviderUsage, error) {
	f.lastRecs = records
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.comparison, f.usage, nil
}

type fakeStore struct {
	saved     []analysis.Record
	records   []analysis.Record
	getErr    error
	lastIDs   []uuid.UUID
	lastOwner string
}

func (f *fakeStore) SaveAnalysis(_ context.Context, ownerID, platform string, result analysis.Result, usage analysis.ProviderUsage) (uuid.UUID, error) {
	id := uuid.New()
	f.saved = append(f.saved, analysis.Record{ID: id, OwnerID: ownerID, Platform: platform, Result: result, Usage: usage})
	return id, nil
}

func (f *fakeStore) GetAnalysesByIDs(_ context.Context, ownerID string, ids []uuid.UUID) ([]analysis.Record, error) {
	f.lastOwner = ownerID
	f.lastIDs = ids
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.records, nil
}

func (f *fakeStore) ListRecent(_ context.Context, ownerID string, limit int) ([]analysis.Record, error) {
	f.lastOwner = ownerID
	return f.records, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

func testServer(analyzer Analyzer, db AnalysisStore, limiter ratelimit.Limiter) *Server {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(8760, "", analyzer, db, limiter, nil, logger)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(&fakeAnalyzer{}, &fakeStore{}, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(&fakeAnalyzer{}, &fakeStore{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/triage/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["service"] != "triage" {
		t.Errorf("expected service triage, got %q", body["service"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := testServer(&fakeAnalyzer{}, &fakeStore{}, nil)

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBearerAuth_RejectsBadToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(8760, "secret-token", &fakeAnalyzer{}, &fakeStore{}, ratelimit.Unlimited{}, nil, logger)

	req := httptest.NewRequest("GET", "/api/v1/analyses", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestBearerAuth_AcceptsGoodToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(8760, "secret-token", &fakeAnalyzer{}, &fakeStore{}, ratelimit.Unlimited{}, nil, logger)

	req := httptest.NewRequest("GET", "/api/v1/analyses", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestOwnerRequired(t *testing.T) {
	srv := testServer(&fakeAnalyzer{}, &fakeStore{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/analyses", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without X-User-ID, got %d", w.Code)
	}
}
