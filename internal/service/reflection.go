package service

import (
	"context"
	"time"

	"github.com/credence-ai/credence/internal/domain"
	"go.uber.org/zap"
)

// StoreStats is the read-only aggregate view for analytics and dashboards.
type StoreStats struct {
	MemoryCount              int                       `json:"memory_count"`
	UnresolvedContradictions int                       `json:"unresolved_contradictions"`
	BeliefSpeech             *domain.BeliefSpeechRatio `json:"belief_speech"`
}

// ReflectionService bundles the read-side views: the volatility-ordered
// reflection queue and aggregate store health.
type ReflectionService struct {
	memSvc *MemoryService
	ledger *LedgerService
	logger *zap.Logger
}

func NewReflectionService(memSvc *MemoryService, ledger *LedgerService, logger *zap.Logger) *ReflectionService {
	return &ReflectionService{memSvc: memSvc, ledger: ledger, logger: logger}
}

func (s *ReflectionService) Queue(ctx context.Context) ([]ReflectionItem, error) {
	return s.ledger.ReflectionQueue(ctx)
}

func (s *ReflectionService) Stats(ctx context.Context, window time.Duration) (*StoreStats, error) {
	count, err := s.memSvc.MemoryCount(ctx)
	if err != nil {
		return nil, err
	}
	unresolved, err := s.ledger.UnresolvedCount(ctx)
	if err != nil {
		return nil, err
	}
	ratio, err := s.memSvc.BeliefSpeechRatio(ctx, window)
	if err != nil {
		return nil, err
	}
	return &StoreStats{
		MemoryCount:              count,
		UnresolvedContradictions: unresolved,
		BeliefSpeech:             ratio,
	}, nil
}
