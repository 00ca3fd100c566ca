package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RetrievedMemory pairs a memory with its retrieval score.
type RetrievedMemory struct {
	Memory
	Score float64 `json:"score"`
}

// TrustApplyFunc computes a memory's new trust inside a row-locked
// transaction. It receives the current row and returns the new trust, the
// audit reason, and the drift that motivated the change (nil when no output
// vector was involved). Returning an error aborts the transaction.
type TrustApplyFunc func(m *Memory) (newTrust float64, reason string, drift *float64, err error)

// TrustChange reports the outcome of one trust mutation.
type TrustChange struct {
	MemoryID uuid.UUID `json:"memory_id"`
	OldTrust float64   `json:"old_trust"`
	NewTrust float64   `json:"new_trust"`
	Reason   string    `json:"reason"`
	Drift    *float64  `json:"drift,omitempty"`
}

// MemoryStore persists memory records. Trust mutations go through
// EvolveTrust only, which appends the trust-log row in the same transaction
// so a trust change without its audit entry cannot be observed.
type MemoryStore interface {
	Insert(ctx context.Context, m *Memory) error
	GetByID(ctx context.Context, id uuid.UUID) (*Memory, error)
	// ListForRetrieval returns every record with trust >= minTrust,
	// embeddings included, in insertion order.
	ListForRetrieval(ctx context.Context, minTrust float64) ([]Memory, error)
	EvolveTrust(ctx context.Context, id uuid.UUID, apply TrustApplyFunc) (*TrustChange, error)
	Count(ctx context.Context) (int, error)
}

// TrustLogStore is read-only; rows are appended by MemoryStore.EvolveTrust
// and ContradictionStore.Record/Resolve transactions.
type TrustLogStore interface {
	ListByMemory(ctx context.Context, memoryID uuid.UUID) ([]TrustLogEntry, error)
}

// BeliefSpeechStore is append-only.
type BeliefSpeechStore interface {
	Append(ctx context.Context, e *BeliefSpeechEntry) error
	Ratio(ctx context.Context, window time.Duration) (*BeliefSpeechRatio, error)
}

// RecordOpts controls contradiction deduplication and the atomic trust
// penalty applied to the older memory when a genuinely new entry is created.
type RecordOpts struct {
	// SignatureEpsilon bounds the driftMean difference under which a repeat
	// of the same memory pair with the same slot signature is treated as a
	// confirmation of the existing open entry instead of a new one.
	SignatureEpsilon float64
	// Penalty, when non-nil, is applied to the old memory in the same
	// transaction that inserts the new ledger entry.
	Penalty TrustApplyFunc
}

// ContradictionStore owns the ledger.
type ContradictionStore interface {
	// Record appends a new entry, or bumps the confirmation counter on an
	// existing open entry with an identical signature. The returned bool is
	// true when a new entry was created.
	Record(ctx context.Context, e *Contradiction, opts RecordOpts) (*Contradiction, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Contradiction, error)
	// ListOpen returns unresolved entries (Open or Settling). A non-empty
	// slotFilter restricts results to entries touching any of those slots.
	ListOpen(ctx context.Context, slotFilter []string) ([]Contradiction, error)
	UnresolvedCount(ctx context.Context) (int, error)
	// ConfirmSide registers that a later query resolved to memoryID's side.
	// Confirmations of the same side age the entry Open -> Settling ->
	// Settled at the given thresholds; a confirmation of the other side
	// switches sides and restarts the count.
	ConfirmSide(ctx context.Context, id, memoryID uuid.UUID, settlingAt, settledAt int) (*Contradiction, error)
	// Resolve applies an explicit decision. Override requires chosen and a
	// penalty for the losing memory, applied in the same transaction.
	Resolve(ctx context.Context, id uuid.UUID, decision ResolutionDecision, chosen *uuid.UUID, penalty TrustApplyFunc) (*Contradiction, error)
}
