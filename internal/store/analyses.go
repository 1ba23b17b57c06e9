package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightline-app/triage/internal/analysis"
)

// SaveAnalysis persists a finished analysis record. The result document and
// usage record are stored as JSONB alongside the queryable columns.
func (s *Store) SaveAnalysis(ctx context.Context, ownerID, platform string, result analysis.Result, usage analysis.ProviderUsage) (uuid.UUID, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal result: %w", err)
	}
	usageJSON, err := json.Marshal(usage)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal usage: %w", err)
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO analyses (id, owner_id, platform, risk_score, result, provider_usage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id, ownerID, platform, result.RiskScore, resultJSON, usageJSON,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

// GetAnalysesByIDs loads the given records, restricted to ownerID. Any
// missing or foreign ID yields ErrNotFound so the caller can surface an
// invalid-input response rather than comparing a partial set.
func (s *Store) GetAnalysesByIDs(ctx context.Context, ownerID string, ids []uuid.UUID) ([]analysis.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, platform, result, provider_usage, created_at
		FROM analyses
		WHERE owner_id = $1 AND id = ANY($2)`,
		ownerID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var records []analysis.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read analyses: %w", err)
	}

	if len(records) != len(ids) {
		return nil, fmt.Errorf("%w: %d of %d analyses", ErrNotFound, len(ids)-len(records), len(ids))
	}
	return records, nil
}

// ListRecent returns up to limit most recent analyses for an owner, newest
// first.
func (s *Store) ListRecent(ctx context.Context, ownerID string, limit int) ([]analysis.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, platform, result, provider_usage, created_at
		FROM analyses
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent analyses: %w", err)
	}
	defer rows.Close()

	var records []analysis.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read analyses: %w", err)
	}
	return records, nil
}

// CountSince reports how many analyses an owner has submitted since the
// cutoff. This is the durable backstop behind the in-memory rate limiter.
func (s *Store) CountSince(ctx context.Context, ownerID string, cutoff time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM analyses WHERE owner_id = $1 AND created_at >= $2`,
		ownerID, cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

func scanRecord(scan func(dest ...any) error) (analysis.Record, error) {
	var (
		rec        analysis.Record
		resultJSON []byte
		usageJSON  []byte
	)
	if err := scan(&rec.ID, &rec.OwnerID, &rec.Platform, &resultJSON, &usageJSON, &rec.CreatedAt); err != nil {
		return analysis.Record{}, fmt.Errorf("scan analysis: %w", err)
	}
	if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
		return analysis.Record{}, fmt.Errorf("unmarshal result: %w", err)
	}
	if err := json.Unmarshal(usageJSON, &rec.Usage); err != nil {
		return analysis.Record{}, fmt.Errorf("unmarshal usage: %w", err)
	}
	return rec, nil
}
