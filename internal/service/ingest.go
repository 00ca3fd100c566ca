package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/scoring"
	"go.uber.org/zap"
)

// IngestRequest is an InsertRequest plus the extracted fact slots of the
// statement. Slots may be empty when the extractor found none.
type IngestRequest struct {
	InsertRequest
	Slots map[string]domain.SlotValue
}

// IngestResult reports the stored memory and, when a trigger rule fired, the
// ledger entry it produced.
type IngestResult struct {
	Memory        *domain.Memory        `json:"memory"`
	Contradiction *domain.Contradiction `json:"contradiction,omitempty"`
	TriggerReason string                `json:"trigger_reason,omitempty"`
}

// IngestService is the end-to-end admission flow around insert: find the
// nearest prior belief, run the trigger rules against it, store the new
// statement, and record the contradiction (degrading the prior's trust in
// the same transaction) when a rule fires.
type IngestService struct {
	memSvc    *MemoryService
	ledger    *LedgerService
	extractor domain.SlotExtractor
	cfg       scoring.Config
	logger    *zap.Logger
}

func NewIngestService(memSvc *MemoryService, ledger *LedgerService, extractor domain.SlotExtractor, cfg scoring.Config, logger *zap.Logger) *IngestService {
	return &IngestService{
		memSvc:    memSvc,
		ledger:    ledger,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	priors, err := s.memSvc.Retrieve(ctx, req.Embedding, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve priors: %w", err)
	}

	var (
		prior     *domain.Memory
		drift     float64
		triggered bool
		reason    string
	)
	// The nearest neighbor in a non-empty store may still be about something
	// else entirely. Unrelated priors never enter the trigger rules, so a
	// stream of off-topic statements cannot touch a contested memory's trust.
	if len(priors) > 0 && scoring.Similarity(req.Embedding, priors[0].Memory.Embedding) >= s.cfg.MinRelatedSimilarity {
		prior = &priors[0].Memory
		drift = scoring.Drift(req.Embedding, prior.Embedding)
		triggered, reason = scoring.DetectContradiction(scoring.ContradictionInput{
			Drift:     drift,
			ConfNew:   req.Confidence,
			ConfPrior: prior.Confidence,
			Source:    req.Source,
			TextNew:   req.Content,
			TextPrior: prior.Content,
		}, s.cfg)
	}

	insert := req.InsertRequest
	insert.ContradictionSignal = insert.ContradictionSignal || triggered

	m, err := s.memSvc.Insert(ctx, insert)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{Memory: m}
	if !triggered {
		return result, nil
	}

	slots := s.affectedSlots(req, prior)
	summary := fmt.Sprintf("%q conflicts with earlier %q (%s)", req.Content, prior.Content, reason)

	entry, _, err := s.ledger.Record(ctx, RecordContradictionRequest{
		OldMemoryID:     prior.ID,
		NewMemoryID:     m.ID,
		DriftMean:       drift,
		ConfidenceDelta: prior.Confidence - req.Confidence,
		Type:            classifyContradiction(reason, req.Content, prior.Content),
		AffectsSlots:    slots,
		Summary:         summary,
	})
	if err != nil {
		return nil, fmt.Errorf("record contradiction: %w", err)
	}

	result.Contradiction = entry
	result.TriggerReason = reason
	return result, nil
}

// affectedSlots scopes the conflict to the fact slots where the two
// statements actually disagree. Without an extractor (or a prior-side
// extraction), the new statement's slots are used as-is.
func (s *IngestService) affectedSlots(req IngestRequest, prior *domain.Memory) []string {
	if len(req.Slots) == 0 {
		return nil
	}

	var priorSlots map[string]domain.SlotValue
	if s.extractor != nil && prior != nil {
		priorSlots = s.extractor.Extract(prior.Content)
	}

	var slots []string
	for name, v := range req.Slots {
		if priorSlots != nil {
			pv, ok := priorSlots[name]
			if ok && pv.Normalized == v.Normalized {
				continue // same fact, no disagreement on this slot
			}
		}
		slots = append(slots, name)
	}
	sort.Strings(slots)
	return slots
}

// classifyContradiction maps a trigger reason to a ledger type. Statements
// still sharing a meaningful share of key elements read as revisions of the
// same fact rather than outright conflicts.
func classifyContradiction(reason, textNew, textPrior string) domain.ContradictionType {
	switch reason {
	case "confidence drop":
		return domain.TypeRevision
	case "high drift", "fallback drift":
		if scoring.KeyElementOverlap(textNew, textPrior) >= 0.3 {
			return domain.TypeRefinement
		}
		return domain.TypeConflict
	default:
		return domain.TypeConflict
	}
}
