package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/scoring"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordContradictionRequest names the two sides and the trigger evidence.
type RecordContradictionRequest struct {
	OldMemoryID     uuid.UUID
	NewMemoryID     uuid.UUID
	DriftMean       float64
	ConfidenceDelta float64
	Type            domain.ContradictionType
	AffectsSlots    []string
	Summary         string
}

// ReflectionItem is one queue entry, priced by volatility.
type ReflectionItem struct {
	Contradiction domain.Contradiction `json:"contradiction"`
	Volatility    float64              `json:"volatility"`
}

// LedgerService owns contradiction lifecycle: recording, confirmation aging,
// explicit resolution, and the reflection queue.
type LedgerService struct {
	ledger   domain.ContradictionStore
	memories domain.MemoryStore
	memSvc   *MemoryService
	cfg      scoring.Config
	logger   *zap.Logger
}

func NewLedgerService(
	ledger domain.ContradictionStore,
	memories domain.MemoryStore,
	memSvc *MemoryService,
	cfg scoring.Config,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		ledger:   ledger,
		memories: memories,
		memSvc:   memSvc,
		cfg:      cfg,
		logger:   logger,
	}
}

// Record appends a ledger entry and degrades the older memory's trust in the
// same transaction. An identical-signature repeat only bumps the existing
// entry's confirmation counter and applies no penalty, so repeating the same
// statement cannot flood the ledger or grind trust down.
func (s *LedgerService) Record(ctx context.Context, req RecordContradictionRequest) (*domain.Contradiction, bool, error) {
	if !domain.ValidContradictionType(string(req.Type)) {
		return nil, false, fmt.Errorf("invalid contradiction type %q", req.Type)
	}

	drift := req.DriftMean
	penalty := func(m *domain.Memory) (float64, string, *float64, error) {
		newTrust := scoring.CapFallbackTrust(scoring.EvolveContradicted(m.Trust, drift, s.cfg), m.Source, s.cfg)
		return newTrust, "contradicted", &drift, nil
	}

	entry := &domain.Contradiction{
		OldMemoryID:     req.OldMemoryID,
		NewMemoryID:     req.NewMemoryID,
		DriftMean:       req.DriftMean,
		ConfidenceDelta: req.ConfidenceDelta,
		Type:            req.Type,
		AffectsSlots:    req.AffectsSlots,
		Summary:         req.Summary,
	}

	recorded, created, err := s.ledger.Record(ctx, entry, domain.RecordOpts{
		SignatureEpsilon: s.cfg.SignatureEpsilon,
		Penalty:          penalty,
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info("contradiction recorded",
			zap.String("ledger_id", recorded.ID.String()),
			zap.String("old_memory_id", req.OldMemoryID.String()),
			zap.String("new_memory_id", req.NewMemoryID.String()),
			zap.Float64("drift_mean", req.DriftMean),
			zap.Strings("affects_slots", req.AffectsSlots))
	} else {
		s.logger.Debug("contradiction confirmed",
			zap.String("ledger_id", recorded.ID.String()),
			zap.Int("confirmation_count", recorded.ConfirmationCount))
	}

	return recorded, created, nil
}

// OpenContradictions returns unresolved entries, optionally scoped to slots.
func (s *LedgerService) OpenContradictions(ctx context.Context, slotFilter []string) ([]domain.Contradiction, error) {
	return s.ledger.ListOpen(ctx, slotFilter)
}

func (s *LedgerService) UnresolvedCount(ctx context.Context) (int, error) {
	return s.ledger.UnresolvedCount(ctx)
}

// Confirm registers that a later query resolved to memoryID's side and, when
// an output vector is available, reinforces that memory's trust. The entry
// ages Open -> Settling -> Settled at the configured confirmation counts.
func (s *LedgerService) Confirm(ctx context.Context, id, memoryID uuid.UUID, outputVector []float32) (*domain.Contradiction, error) {
	entry, err := s.ledger.ConfirmSide(ctx, id, memoryID, s.cfg.SettlingConfirmations, s.cfg.SettledConfirmations)
	if err != nil {
		return nil, err
	}

	if len(outputVector) > 0 {
		if _, err := s.memSvc.EvolveTrustForReinforcement(ctx, memoryID, outputVector); err != nil {
			return nil, fmt.Errorf("reinforce confirmed side: %w", err)
		}
	}
	return entry, nil
}

// Resolve applies an explicit human decision to an entry. Override degrades
// the losing memory's trust (never its text); Preserve keeps both sides
// valid; AskUser defers the entry without closing it.
func (s *LedgerService) Resolve(ctx context.Context, id uuid.UUID, decision domain.ResolutionDecision, chosen *uuid.UUID) (*domain.Contradiction, error) {
	var penalty domain.TrustApplyFunc
	if decision == domain.DecisionOverride {
		entry, err := s.ledger.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		drift := entry.DriftMean
		penalty = func(m *domain.Memory) (float64, string, *float64, error) {
			newTrust := scoring.CapFallbackTrust(scoring.EvolveContradicted(m.Trust, drift, s.cfg), m.Source, s.cfg)
			return newTrust, "overridden", &drift, nil
		}
	}

	entry, err := s.ledger.Resolve(ctx, id, decision, chosen, penalty)
	if err != nil {
		return nil, err
	}

	s.logger.Info("contradiction resolution",
		zap.String("ledger_id", id.String()),
		zap.String("decision", string(decision)),
		zap.String("status", string(entry.Status)))

	return entry, nil
}

// ReflectionQueue lists open contradictions ordered by volatility, highest
// first, dropping entries below the reflection threshold.
func (s *LedgerService) ReflectionQueue(ctx context.Context) ([]ReflectionItem, error) {
	open, err := s.ledger.ListOpen(ctx, nil)
	if err != nil {
		return nil, err
	}

	items := make([]ReflectionItem, 0, len(open))
	for _, c := range open {
		isFallback := false
		if m, err := s.memories.GetByID(ctx, c.NewMemoryID); err == nil {
			isFallback = m.Source.LowProvenance()
		}
		vol := scoring.Volatility(scoring.VolatilityInputs{
			Drift:           c.DriftMean,
			MemoryAlignment: 1 - c.DriftMean,
			IsContradiction: true,
			IsFallback:      isFallback,
		}, s.cfg)
		if !scoring.NeedsReflection(vol, s.cfg) {
			continue
		}
		items = append(items, ReflectionItem{Contradiction: c, Volatility: vol})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Volatility != items[j].Volatility {
			return items[i].Volatility > items[j].Volatility
		}
		return items[i].Contradiction.CreatedAt.Before(items[j].Contradiction.CreatedAt)
	})
	return items, nil
}
