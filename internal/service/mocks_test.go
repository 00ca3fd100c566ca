package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/store"
	"github.com/google/uuid"
)

// testClock is the fixed time the in-memory stores stamp rows with. Tests
// that need recency weights pin the service clock to the same instant.
var testClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// mockMemoryStore keeps memories in insertion order and doubles as the trust
// log, mirroring how the real store appends both rows in one transaction.
type mockMemoryStore struct {
	memories map[uuid.UUID]*domain.Memory
	order    []uuid.UUID
	log      []domain.TrustLogEntry
	now      time.Time
}

func newMockMemoryStore() *mockMemoryStore {
	return &mockMemoryStore{
		memories: make(map[uuid.UUID]*domain.Memory),
		now:      testClock,
	}
}

func (s *mockMemoryStore) Insert(ctx context.Context, m *domain.Memory) error {
	m.ID = uuid.New()
	m.CreatedAt = s.now
	m.UpdatedAt = s.now
	cp := *m
	s.memories[m.ID] = &cp
	s.order = append(s.order, m.ID)
	return nil
}

func (s *mockMemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memory, error) {
	m, ok := s.memories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *mockMemoryStore) ListForRetrieval(ctx context.Context, minTrust float64) ([]domain.Memory, error) {
	var out []domain.Memory
	for _, id := range s.order {
		if m := s.memories[id]; m.Trust >= minTrust {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *mockMemoryStore) EvolveTrust(ctx context.Context, id uuid.UUID, apply domain.TrustApplyFunc) (*domain.TrustChange, error) {
	m, ok := s.memories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	newTrust, reason, drift, err := apply(m)
	if err != nil {
		return nil, err
	}
	old := m.Trust
	m.Trust = newTrust
	m.UpdatedAt = s.now
	s.log = append(s.log, domain.TrustLogEntry{
		ID:        uuid.New(),
		MemoryID:  id,
		OldTrust:  old,
		NewTrust:  newTrust,
		Reason:    reason,
		Drift:     drift,
		CreatedAt: s.now,
	})
	return &domain.TrustChange{MemoryID: id, OldTrust: old, NewTrust: newTrust, Reason: reason, Drift: drift}, nil
}

func (s *mockMemoryStore) Count(ctx context.Context) (int, error) {
	return len(s.order), nil
}

// ListByMemory satisfies domain.TrustLogStore.
func (s *mockMemoryStore) ListByMemory(ctx context.Context, memoryID uuid.UUID) ([]domain.TrustLogEntry, error) {
	var out []domain.TrustLogEntry
	for _, e := range s.log {
		if e.MemoryID == memoryID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockBeliefSpeechStore struct {
	entries []domain.BeliefSpeechEntry
	now     time.Time
}

func newMockBeliefSpeechStore() *mockBeliefSpeechStore {
	return &mockBeliefSpeechStore{now: testClock}
}

func (s *mockBeliefSpeechStore) Append(ctx context.Context, e *domain.BeliefSpeechEntry) error {
	e.ID = uuid.New()
	e.CreatedAt = s.now
	s.entries = append(s.entries, *e)
	return nil
}

func (s *mockBeliefSpeechStore) Ratio(ctx context.Context, window time.Duration) (*domain.BeliefSpeechRatio, error) {
	r := &domain.BeliefSpeechRatio{Window: window}
	since := s.now.Add(-window)
	for _, e := range s.entries {
		if e.CreatedAt.Before(since) {
			continue
		}
		if e.IsBelief {
			r.Beliefs++
		} else {
			r.Speech++
		}
	}
	if total := r.Beliefs + r.Speech; total > 0 {
		r.Ratio = float64(r.Beliefs) / float64(total)
	}
	return r, nil
}

// mockContradictionStore reimplements the ledger semantics in memory: the
// signature dedup on Record, the confirmation aging, and the penalty applied
// through the memory store.
type mockContradictionStore struct {
	memories *mockMemoryStore
	entries  map[uuid.UUID]*domain.Contradiction
	order    []uuid.UUID
	now      time.Time
}

func newMockContradictionStore(memories *mockMemoryStore) *mockContradictionStore {
	return &mockContradictionStore{
		memories: memories,
		entries:  make(map[uuid.UUID]*domain.Contradiction),
		now:      testClock,
	}
}

func slotsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *mockContradictionStore) Record(ctx context.Context, e *domain.Contradiction, opts domain.RecordOpts) (*domain.Contradiction, bool, error) {
	if e.AffectsSlots == nil {
		e.AffectsSlots = []string{}
	}
	sort.Strings(e.AffectsSlots)
	if e.Status == "" {
		e.Status = domain.StatusOpen
	}
	if e.ConfirmationCount == 0 {
		e.ConfirmationCount = 1
	}

	for _, id := range s.order {
		existing := s.entries[id]
		if existing.OldMemoryID == e.OldMemoryID &&
			existing.NewMemoryID == e.NewMemoryID &&
			existing.Status.Unresolved() &&
			slotsEqual(existing.AffectsSlots, e.AffectsSlots) &&
			math.Abs(existing.DriftMean-e.DriftMean) <= opts.SignatureEpsilon {
			existing.ConfirmationCount++
			cp := *existing
			return &cp, false, nil
		}
	}

	e.ID = uuid.New()
	e.CreatedAt = s.now
	if opts.Penalty != nil {
		if _, err := s.memories.EvolveTrust(ctx, e.OldMemoryID, opts.Penalty); err != nil {
			return nil, false, err
		}
	}
	cp := *e
	s.entries[e.ID] = &cp
	s.order = append(s.order, e.ID)
	return e, true, nil
}

func (s *mockContradictionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contradiction, error) {
	c, ok := s.entries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *mockContradictionStore) ListOpen(ctx context.Context, slotFilter []string) ([]domain.Contradiction, error) {
	var out []domain.Contradiction
	for _, id := range s.order {
		c := s.entries[id]
		if !c.Status.Unresolved() {
			continue
		}
		if !c.AffectsAny(slotFilter) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *mockContradictionStore) UnresolvedCount(ctx context.Context) (int, error) {
	count := 0
	for _, c := range s.entries {
		if c.Status.Unresolved() {
			count++
		}
	}
	return count, nil
}

func (s *mockContradictionStore) ConfirmSide(ctx context.Context, id, memoryID uuid.UUID, settlingAt, settledAt int) (*domain.Contradiction, error) {
	c, ok := s.entries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if memoryID != c.OldMemoryID && memoryID != c.NewMemoryID {
		return nil, store.ErrInvalidResolution
	}
	if c.Status.Terminal() {
		cp := *c
		return &cp, nil
	}

	if c.ConfirmedMemoryID != nil && *c.ConfirmedMemoryID == memoryID {
		c.ConfirmationCount++
	} else {
		side := memoryID
		c.ConfirmedMemoryID = &side
		c.ConfirmationCount = 1
	}

	switch {
	case c.ConfirmationCount >= settledAt:
		c.Status = domain.StatusSettled
	case c.ConfirmationCount >= settlingAt:
		c.Status = domain.StatusSettling
	}

	cp := *c
	return &cp, nil
}

func (s *mockContradictionStore) Resolve(ctx context.Context, id uuid.UUID, decision domain.ResolutionDecision, chosen *uuid.UUID, penalty domain.TrustApplyFunc) (*domain.Contradiction, error) {
	c, ok := s.entries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if c.Status.Terminal() {
		return nil, store.ErrAlreadyResolved
	}

	switch decision {
	case domain.DecisionOverride:
		if chosen == nil || (*chosen != c.OldMemoryID && *chosen != c.NewMemoryID) {
			return nil, store.ErrInvalidResolution
		}
		loser := c.OldMemoryID
		if *chosen == c.OldMemoryID {
			loser = c.NewMemoryID
		}
		if penalty != nil {
			if _, err := s.memories.EvolveTrust(ctx, loser, penalty); err != nil {
				return nil, err
			}
		}
		c.Status = domain.StatusResolved
		c.ConfirmedMemoryID = chosen
		resolvedAt := s.now
		c.ResolvedAt = &resolvedAt

	case domain.DecisionPreserve:
		c.Status = domain.StatusResolved
		resolvedAt := s.now
		c.ResolvedAt = &resolvedAt

	case domain.DecisionAskUser:
		deferredAt := s.now
		c.DeferredAt = &deferredAt

	default:
		return nil, store.ErrInvalidResolution
	}

	cp := *c
	return &cp, nil
}

// slotMapExtractor returns canned slot extractions keyed by exact text.
type slotMapExtractor map[string]map[string]domain.SlotValue

func (e slotMapExtractor) Extract(text string) map[string]domain.SlotValue {
	return e[text]
}
