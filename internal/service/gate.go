package service

import (
	"context"
	"fmt"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/scoring"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnswerEvaluation is one generated answer plus the alignment evidence the
// caller computed for it. The response type is classified upstream.
type AnswerEvaluation struct {
	Query           string
	Answer          string
	ResponseType    domain.ResponseType
	IntentAlignment float64
	MemoryAlignment float64
	Grounding       float64
	// DependsOnSlots scopes the contradiction check: only open conflicts
	// touching these slots can affect this answer.
	DependsOnSlots []string
	// SupportingMemoryIDs are the memories the answer was grounded in; they
	// are reinforced when the answer is admitted as belief.
	SupportingMemoryIDs []uuid.UUID
	// OutputEmbedding is the answer's vector, used for drift in trust
	// evolution.
	OutputEmbedding  []float32
	QuotedFromMemory string
	// Source labels speech-path answers in the belief/speech log.
	Source string
}

// GateService wraps the kernel's admission check with contradiction-severity
// derivation and the consequences of the decision: trust evolution and the
// belief/speech log.
type GateService struct {
	ledger domain.ContradictionStore
	memSvc *MemoryService
	cfg    scoring.Config
	logger *zap.Logger
}

func NewGateService(ledger domain.ContradictionStore, memSvc *MemoryService, cfg scoring.Config, logger *zap.Logger) *GateService {
	return &GateService{ledger: ledger, memSvc: memSvc, cfg: cfg, logger: logger}
}

// Severity derives the ledger's verdict for the given dependency slots. Open
// undeferred conflicts block; settling or deferred ones surface as a note;
// anything settled or resolved is silent. Unrelated conflicts never block:
// the slot scoping is a correctness requirement.
func (s *GateService) Severity(ctx context.Context, slots []string) (domain.ContradictionSeverity, error) {
	if len(slots) == 0 {
		return domain.SeverityNone, nil
	}
	open, err := s.ledger.ListOpen(ctx, slots)
	if err != nil {
		return domain.SeverityNone, fmt.Errorf("list open contradictions: %w", err)
	}

	severity := domain.SeverityNone
	for _, c := range open {
		if c.Status == domain.StatusOpen && c.DeferredAt == nil {
			return domain.SeverityBlocking, nil
		}
		severity = domain.SeverityNote
	}
	return severity, nil
}

// Evaluate runs the admission gate for one answer and applies the
// consequences: belief answers reinforce their supporting memories and land
// in the belief log; speech answers land in the speech log; rejected answers
// are never served, so nothing is recorded for them.
func (s *GateService) Evaluate(ctx context.Context, eval AnswerEvaluation) (*domain.GateDecision, error) {
	severity, err := s.Severity(ctx, eval.DependsOnSlots)
	if err != nil {
		return nil, err
	}

	decision := scoring.EvaluateGate(scoring.GateInput{
		ResponseType:     eval.ResponseType,
		IntentAlignment:  eval.IntentAlignment,
		MemoryAlignment:  eval.MemoryAlignment,
		Grounding:        eval.Grounding,
		Severity:         severity,
		AnswerText:       eval.Answer,
		QuotedFromMemory: eval.QuotedFromMemory,
	}, s.cfg)

	s.logger.Debug("gate decision",
		zap.String("outcome", string(decision.Outcome)),
		zap.String("reason", decision.Reason),
		zap.String("severity", string(decision.Severity)),
		zap.String("response_type", string(eval.ResponseType)))

	switch decision.Outcome {
	case domain.GateAcceptBelief:
		var sum float64
		for _, id := range eval.SupportingMemoryIDs {
			change, err := s.memSvc.EvolveTrustForAlignment(ctx, id, eval.OutputEmbedding)
			if err != nil {
				return nil, fmt.Errorf("reinforce memory %s: %w", id, err)
			}
			sum += change.NewTrust
		}
		var avgTrust float64
		if len(eval.SupportingMemoryIDs) > 0 {
			avgTrust = sum / float64(len(eval.SupportingMemoryIDs))
		}
		if err := s.memSvc.RecordBelief(ctx, eval.Query, eval.Answer, eval.SupportingMemoryIDs, avgTrust); err != nil {
			return nil, fmt.Errorf("record belief: %w", err)
		}

	case domain.GateAcceptSpeech:
		if err := s.memSvc.RecordSpeech(ctx, eval.Query, eval.Answer, eval.Source); err != nil {
			return nil, fmt.Errorf("record speech: %w", err)
		}
	}

	return &decision, nil
}
