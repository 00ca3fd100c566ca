package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContradictionStatus is the lifecycle state of a ledger entry.
//
// Two independent paths lead away from Open: repeated confirmations of one
// side age the entry Open -> Settling -> Settled without any human decision,
// while an explicit resolution moves it to Resolved. Settled and Resolved are
// both terminal.
type ContradictionStatus string

const (
	StatusOpen     ContradictionStatus = "open"
	StatusSettling ContradictionStatus = "settling"
	StatusSettled  ContradictionStatus = "settled"
	StatusResolved ContradictionStatus = "resolved"
)

func ValidContradictionStatus(s string) bool {
	switch ContradictionStatus(s) {
	case StatusOpen, StatusSettling, StatusSettled, StatusResolved:
		return true
	}
	return false
}

// Terminal reports whether the entry can still change state.
func (s ContradictionStatus) Terminal() bool {
	return s == StatusSettled || s == StatusResolved
}

// Unresolved covers the states that still surface to the reflection queue
// and can block admission.
func (s ContradictionStatus) Unresolved() bool {
	return s == StatusOpen || s == StatusSettling
}

type ContradictionType string

const (
	TypeConflict   ContradictionType = "conflict"
	TypeRevision   ContradictionType = "revision"
	TypeTemporal   ContradictionType = "temporal"
	TypeRefinement ContradictionType = "refinement"
)

func ValidContradictionType(t string) bool {
	switch ContradictionType(t) {
	case TypeConflict, TypeRevision, TypeTemporal, TypeRefinement:
		return true
	}
	return false
}

// ResolutionDecision is the explicit action closing (or deferring) an entry.
type ResolutionDecision string

const (
	// DecisionOverride promotes one memory; the loser's trust is degraded
	// further but its text is never touched.
	DecisionOverride ResolutionDecision = "override"
	// DecisionPreserve keeps both memories as valid in different contexts.
	DecisionPreserve ResolutionDecision = "preserve"
	// DecisionAskUser defers to the user; the entry stays Open but is
	// timestamped so it is not re-surfaced every turn.
	DecisionAskUser ResolutionDecision = "ask_user"
)

func ValidResolutionDecision(d string) bool {
	switch ResolutionDecision(d) {
	case DecisionOverride, DecisionPreserve, DecisionAskUser:
		return true
	}
	return false
}

// Contradiction is a first-class record of a conflict between two memories.
// Creating one never deletes or mutates either memory's text; it only
// degrades trust on the older side.
type Contradiction struct {
	ID                uuid.UUID           `json:"id"`
	OldMemoryID       uuid.UUID           `json:"old_memory_id"`
	NewMemoryID       uuid.UUID           `json:"new_memory_id"`
	DriftMean         float64             `json:"drift_mean"`
	ConfidenceDelta   float64             `json:"confidence_delta"`
	Status            ContradictionStatus `json:"status"`
	Type              ContradictionType   `json:"type"`
	AffectsSlots      []string            `json:"affects_slots"`
	Summary           string              `json:"summary"`
	ConfirmationCount int                 `json:"confirmation_count"`
	ConfirmedMemoryID *uuid.UUID          `json:"confirmed_memory_id,omitempty"`
	DeferredAt        *time.Time          `json:"deferred_at,omitempty"`
	ResolvedAt        *time.Time          `json:"resolved_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// AffectsSlot reports whether this entry is scoped to the given fact slot.
func (c *Contradiction) AffectsSlot(slot string) bool {
	for _, s := range c.AffectsSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// AffectsAny reports whether the entry touches any of the given slots. An
// empty filter matches everything.
func (c *Contradiction) AffectsAny(slots []string) bool {
	if len(slots) == 0 {
		return true
	}
	for _, s := range slots {
		if c.AffectsSlot(s) {
			return true
		}
	}
	return false
}
