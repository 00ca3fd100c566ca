package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type MemoryStore struct {
	db *pgxpool.Pool
}

func NewMemoryStore(db *pgxpool.Pool) *MemoryStore {
	return &MemoryStore{db: db}
}

const memoryColumns = `id, embedding, content, confidence, trust, source, compression_mode, context, tags, created_at, updated_at`

func scanMemory(row pgx.Row) (*domain.Memory, error) {
	m := &domain.Memory{}
	var embedding *pgvector.Vector
	err := row.Scan(&m.ID, &embedding, &m.Content, &m.Confidence, &m.Trust, &m.Source, &m.CompressionMode, &m.Context, &m.Tags, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if embedding != nil {
		m.Embedding = embedding.Slice()
	}
	return m, nil
}

func (s *MemoryStore) Insert(ctx context.Context, m *domain.Memory) error {
	var embedding *pgvector.Vector
	if len(m.Embedding) > 0 {
		v := pgvector.NewVector(m.Embedding)
		embedding = &v
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO memories (embedding, content, confidence, trust, source, compression_mode, context, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		embedding, m.Content, m.Confidence, m.Trust, m.Source, m.CompressionMode, m.Context, m.Tags,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memory, error) {
	m, err := scanMemory(s.db.QueryRow(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListForRetrieval returns all records at or above minTrust in insertion
// order. Ranking happens in the service via the scoring kernel, so ties stay
// deterministic across identical inputs.
func (s *MemoryStore) ListForRetrieval(ctx context.Context, minTrust float64) ([]domain.Memory, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE trust >= $1
		 ORDER BY created_at ASC, id ASC`,
		minTrust,
	)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var memories []domain.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}

// EvolveTrust applies a read-modify-write trust change under a row lock and
// appends the trust-log entry in the same transaction. A failed apply or
// write leaves neither table touched.
func (s *MemoryStore) EvolveTrust(ctx context.Context, id uuid.UUID, apply domain.TrustApplyFunc) (*domain.TrustChange, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	change, err := applyTrustTx(ctx, tx, id, apply)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return change, nil
}

// applyTrustTx is shared with the contradiction store so that recording a
// contradiction and degrading the loser's trust commit together.
func applyTrustTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, apply domain.TrustApplyFunc) (*domain.TrustChange, error) {
	m, err := scanMemory(tx.QueryRow(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	newTrust, reason, drift, err := apply(m)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE memories SET trust = $1, updated_at = NOW() WHERE id = $2`,
		newTrust, id,
	); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO trust_log (memory_id, old_trust, new_trust, reason, drift)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, m.Trust, newTrust, reason, drift,
	); err != nil {
		return nil, err
	}

	return &domain.TrustChange{
		MemoryID: id,
		OldTrust: m.Trust,
		NewTrust: newTrust,
		Reason:   reason,
		Drift:    drift,
	}, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM memories`).Scan(&count)
	return count, err
}
