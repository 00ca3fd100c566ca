package store

import (
	"context"
	"time"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BeliefSpeechStore is append-only; it exposes no update or delete.
type BeliefSpeechStore struct {
	db *pgxpool.Pool
}

func NewBeliefSpeechStore(db *pgxpool.Pool) *BeliefSpeechStore {
	return &BeliefSpeechStore{db: db}
}

func (s *BeliefSpeechStore) Append(ctx context.Context, e *domain.BeliefSpeechEntry) error {
	// Speech entries carry no memory IDs; store NULL, not an empty array.
	var memoryIDs any
	if len(e.MemoryIDs) > 0 {
		memoryIDs = e.MemoryIDs
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO belief_speech (query, response, is_belief, memory_ids, avg_trust, source)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		e.Query, e.Response, e.IsBelief, memoryIDs, e.AvgTrust, e.Source,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *BeliefSpeechStore) Ratio(ctx context.Context, window time.Duration) (*domain.BeliefSpeechRatio, error) {
	since := time.Now().Add(-window)
	var beliefs, speech int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE is_belief), COUNT(*) FILTER (WHERE NOT is_belief)
		 FROM belief_speech WHERE created_at >= $1`,
		since,
	).Scan(&beliefs, &speech)
	if err != nil {
		return nil, err
	}

	r := &domain.BeliefSpeechRatio{Beliefs: beliefs, Speech: speech, Window: window}
	if total := beliefs + speech; total > 0 {
		r.Ratio = float64(beliefs) / float64(total)
	}
	return r, nil
}
