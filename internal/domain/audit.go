package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrustLogEntry records one trust mutation. Write-once: the store exposes
// no update or delete for this table.
type TrustLogEntry struct {
	ID        uuid.UUID `json:"id"`
	MemoryID  uuid.UUID `json:"memory_id"`
	OldTrust  float64   `json:"old_trust"`
	NewTrust  float64   `json:"new_trust"`
	Reason    string    `json:"reason"`
	Drift     *float64  `json:"drift,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BeliefSpeechEntry records, per answered query, whether the answer passed
// the admission gate (belief) or was served as unvalidated speech. Append-only.
type BeliefSpeechEntry struct {
	ID        uuid.UUID   `json:"id"`
	Query     string      `json:"query"`
	Response  string      `json:"response"`
	IsBelief  bool        `json:"is_belief"`
	MemoryIDs []uuid.UUID `json:"memory_ids,omitempty"`
	AvgTrust  *float64    `json:"avg_trust,omitempty"`
	Source    string      `json:"source,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// BeliefSpeechRatio is the aggregate view over a time window.
type BeliefSpeechRatio struct {
	Beliefs int     `json:"beliefs"`
	Speech  int     `json:"speech"`
	Ratio   float64 `json:"ratio"`
	Window  time.Duration
}
