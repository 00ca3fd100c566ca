package store

import (
	"context"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrustLogStore is read-only. Rows are appended inside the trust-mutation
// transactions; the table itself rejects UPDATE and DELETE.
type TrustLogStore struct {
	db *pgxpool.Pool
}

func NewTrustLogStore(db *pgxpool.Pool) *TrustLogStore {
	return &TrustLogStore{db: db}
}

func (s *TrustLogStore) ListByMemory(ctx context.Context, memoryID uuid.UUID) ([]domain.TrustLogEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, memory_id, old_trust, new_trust, reason, drift, created_at
		 FROM trust_log WHERE memory_id = $1
		 ORDER BY created_at ASC, id ASC`,
		memoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TrustLogEntry
	for rows.Next() {
		var e domain.TrustLogEntry
		if err := rows.Scan(&e.ID, &e.MemoryID, &e.OldTrust, &e.NewTrust, &e.Reason, &e.Drift, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
