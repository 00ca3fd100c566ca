package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/scoring"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTopK = 10

// InsertRequest carries one already-extracted statement into the store. The
// embedding and any slot extraction happen outside this core.
type InsertRequest struct {
	Content             string
	Embedding           []float32
	Confidence          float64
	Source              domain.Source
	Context             string
	Tags                []string
	UserMarked          bool
	ContradictionSignal bool
	Emotion             float64
	FutureRelevance     float64
}

// MemoryService owns memory records and their trust evolution. Trust changes
// are always a consequence of a decision made elsewhere (the gate, the
// ledger), never computed speculatively here.
type MemoryService struct {
	memories domain.MemoryStore
	trustLog domain.TrustLogStore
	answers  domain.BeliefSpeechStore
	cfg      scoring.Config
	logger   *zap.Logger

	now func() time.Time
}

func NewMemoryService(
	memories domain.MemoryStore,
	trustLog domain.TrustLogStore,
	answers domain.BeliefSpeechStore,
	cfg scoring.Config,
	logger *zap.Logger,
) *MemoryService {
	return &MemoryService{
		memories: memories,
		trustLog: trustLog,
		answers:  answers,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *MemoryService) SetClock(now func() time.Time) {
	s.now = now
}

// Insert scores the statement's novelty and significance, picks the
// compression mode and initial trust, and persists the record. Contradiction
// detection against existing memories is the caller's concern (see
// IngestService) so the store stays simple.
func (s *MemoryService) Insert(ctx context.Context, req InsertRequest) (*domain.Memory, error) {
	if !domain.ValidSource(string(req.Source)) {
		return nil, fmt.Errorf("invalid source %q", req.Source)
	}

	existing, err := s.memories.ListForRetrieval(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list for novelty: %w", err)
	}
	vectors := make([][]float32, 0, len(existing))
	for _, m := range existing {
		vectors = append(vectors, m.Embedding)
	}
	novelty := scoring.Novelty(req.Embedding, vectors)

	significance := scoring.Significance(scoring.SignificanceInputs{
		Emotion:         req.Emotion,
		Novelty:         novelty,
		UserMarked:      req.UserMarked,
		Contradiction:   req.ContradictionSignal,
		FutureRelevance: req.FutureRelevance,
	}, s.cfg)

	m := &domain.Memory{
		Embedding:       req.Embedding,
		Content:         req.Content,
		Confidence:      scoring.Clamp01(req.Confidence),
		Trust:           scoring.InitialTrust(req.Source, significance, s.cfg),
		Source:          req.Source,
		CompressionMode: scoring.CompressionModeFor(significance, s.cfg),
		Context:         req.Context,
		Tags:            req.Tags,
	}

	if err := s.memories.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	s.logger.Debug("memory inserted",
		zap.String("memory_id", m.ID.String()),
		zap.String("source", string(m.Source)),
		zap.Float64("novelty", novelty),
		zap.Float64("significance", significance),
		zap.Float64("initial_trust", m.Trust),
		zap.String("compression_mode", string(m.CompressionMode)))

	return m, nil
}

// Retrieve ranks all records at or above minTrust by the kernel's retrieval
// score. Ordering is deterministic: score descending, then recency, then
// insertion order. An empty store yields an empty result, never an error.
func (s *MemoryService) Retrieve(ctx context.Context, queryVector []float32, k int, minTrust float64) ([]domain.RetrievedMemory, error) {
	if k <= 0 {
		k = defaultTopK
	}

	memories, err := s.memories.ListForRetrieval(ctx, minTrust)
	if err != nil {
		return nil, fmt.Errorf("list for retrieval: %w", err)
	}

	now := s.now()
	scored := make([]domain.RetrievedMemory, 0, len(memories))
	for _, m := range memories {
		sim := scoring.Similarity(queryVector, m.Embedding)
		recency := scoring.RecencyWeight(m.CreatedAt, now, s.cfg.HalfLifeSeconds)
		weight := scoring.BeliefWeight(m.Trust, m.Confidence, s.cfg.Alpha)
		scored = append(scored, domain.RetrievedMemory{
			Memory: m,
			Score:  scoring.RetrievalScore(sim, recency, weight),
		})
	}

	// Input order is insertion order; the stable sort keeps it as the final
	// tiebreak after score and recency.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// EvolveTrustForAlignment reinforces a memory after the gate decided an
// answer was grounded in it.
func (s *MemoryService) EvolveTrustForAlignment(ctx context.Context, memoryID uuid.UUID, outputVector []float32) (*domain.TrustChange, error) {
	return s.evolve(ctx, memoryID, outputVector, "aligned", scoring.EvolveAligned)
}

// EvolveTrustForReinforcement is the milder bump used when a ledger
// confirmation resolves to this memory's side.
func (s *MemoryService) EvolveTrustForReinforcement(ctx context.Context, memoryID uuid.UUID, outputVector []float32) (*domain.TrustChange, error) {
	return s.evolve(ctx, memoryID, outputVector, "reinforced", scoring.EvolveReinforced)
}

// EvolveTrustForContradiction degrades a memory after the gate decided an
// answer explicitly conflicts with it.
func (s *MemoryService) EvolveTrustForContradiction(ctx context.Context, memoryID uuid.UUID, outputVector []float32) (*domain.TrustChange, error) {
	return s.evolve(ctx, memoryID, outputVector, "contradicted", scoring.EvolveContradicted)
}

func (s *MemoryService) evolve(ctx context.Context, memoryID uuid.UUID, outputVector []float32, reason string, fn func(trust, drift float64, cfg scoring.Config) float64) (*domain.TrustChange, error) {
	change, err := s.memories.EvolveTrust(ctx, memoryID, func(m *domain.Memory) (float64, string, *float64, error) {
		drift := scoring.Drift(m.Embedding, outputVector)
		newTrust := scoring.CapFallbackTrust(fn(m.Trust, drift, s.cfg), m.Source, s.cfg)
		return newTrust, reason, &drift, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("trust evolved",
		zap.String("memory_id", memoryID.String()),
		zap.String("reason", reason),
		zap.Float64("old_trust", change.OldTrust),
		zap.Float64("new_trust", change.NewTrust))

	return change, nil
}

// RecordBelief logs an answer that passed the admission gate.
func (s *MemoryService) RecordBelief(ctx context.Context, query, response string, memoryIDs []uuid.UUID, avgTrust float64) error {
	return s.answers.Append(ctx, &domain.BeliefSpeechEntry{
		Query:     query,
		Response:  response,
		IsBelief:  true,
		MemoryIDs: memoryIDs,
		AvgTrust:  &avgTrust,
	})
}

// RecordSpeech logs an answer served without belief status.
func (s *MemoryService) RecordSpeech(ctx context.Context, query, response, source string) error {
	return s.answers.Append(ctx, &domain.BeliefSpeechEntry{
		Query:    query,
		Response: response,
		IsBelief: false,
		Source:   source,
	})
}

func (s *MemoryService) MemoryCount(ctx context.Context) (int, error) {
	return s.memories.Count(ctx)
}

func (s *MemoryService) GetMemory(ctx context.Context, id uuid.UUID) (*domain.Memory, error) {
	return s.memories.GetByID(ctx, id)
}

func (s *MemoryService) TrustHistory(ctx context.Context, memoryID uuid.UUID) ([]domain.TrustLogEntry, error) {
	return s.trustLog.ListByMemory(ctx, memoryID)
}

func (s *MemoryService) BeliefSpeechRatio(ctx context.Context, window time.Duration) (*domain.BeliefSpeechRatio, error) {
	return s.answers.Ratio(ctx, window)
}
