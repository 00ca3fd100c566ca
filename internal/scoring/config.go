package scoring

import "github.com/credence-ai/credence/internal/domain"

// GateThresholds is the minimum score triple one response type must clear.
type GateThresholds struct {
	Intent    float64
	Memory    float64
	Grounding float64
}

// Config is the single calibration point for the kernel. It is constructed
// once (internal/config) and passed by value; nothing in this package keeps
// defaults of its own.
type Config struct {
	// Retrieval
	HalfLifeSeconds float64
	// Alpha blends trust against confidence in the belief weight.
	Alpha float64

	// Trust evolution
	EtaPos       float64
	EtaReinforce float64
	EtaNeg       float64
	// FallbackTrustCap is the ceiling for low-provenance sources, enforced
	// at insert and after every evolution.
	FallbackTrustCap float64

	// Initial trust by source plus a bonus proportional to significance.
	TrustBaseUser          float64
	TrustBaseSystem        float64
	TrustBaseExternal      float64
	TrustBaseReflection    float64
	TrustBaseFallback      float64
	TrustBaseModelOutput   float64
	SignificanceTrustBonus float64

	// Significance weights and compression-mode cutoffs.
	WeightEmotion         float64
	WeightNovelty         float64
	WeightUserMarked      float64
	WeightContradiction   float64
	WeightFutureRelevance float64
	LosslessThreshold     float64
	SketchThreshold       float64

	// Contradiction trigger rules.
	// MinRelatedSimilarity is the floor below which a prior is treated as
	// unrelated and no trigger rule runs against it. A nearest neighbor
	// always exists in a non-empty store; that alone does not make it a
	// candidate for conflict.
	MinRelatedSimilarity float64
	ThetaContra          float64
	ThetaDrop            float64
	ThetaMin             float64
	ThetaFallback        float64
	ParaphraseLow        float64
	ParaphraseHigh       float64
	// ParaphraseOverlap is the key-element share above which moderate-drift
	// texts are treated as rewordings, not contradictions.
	ParaphraseOverlap float64

	// Volatility weights and the queue-admission threshold.
	VolatilityDriftWeight         float64
	VolatilityAlignmentWeight     float64
	VolatilityContradictionWeight float64
	VolatilityFallbackWeight      float64
	ThetaReflect                  float64

	// Ledger aging.
	SettlingConfirmations int
	SettledConfirmations  int
	SignatureEpsilon      float64

	// Admission gate.
	Gate map[domain.ResponseType]GateThresholds
	// QuotedGroundingFloor replaces the factual grounding threshold when the
	// answer is a short, directly quoted extraction from a memory.
	QuotedGroundingFloor float64
	QuotedMaxLen         int
}

// DefaultConfig returns the calibration the system ships with. Every field
// can be overridden through the environment (see internal/config).
func DefaultConfig() Config {
	return Config{
		HalfLifeSeconds: 7 * 24 * 3600,
		Alpha:           0.65,

		EtaPos:           0.10,
		EtaReinforce:     0.05,
		EtaNeg:           0.40,
		FallbackTrustCap: 0.45,

		TrustBaseUser:          0.60,
		TrustBaseSystem:        0.55,
		TrustBaseExternal:      0.50,
		TrustBaseReflection:    0.65,
		TrustBaseFallback:      0.20,
		TrustBaseModelOutput:   0.25,
		SignificanceTrustBonus: 0.10,

		WeightEmotion:         0.15,
		WeightNovelty:         0.30,
		WeightUserMarked:      0.25,
		WeightContradiction:   0.15,
		WeightFutureRelevance: 0.15,
		LosslessThreshold:     0.65,
		SketchThreshold:       0.30,

		MinRelatedSimilarity: 0.15,
		ThetaContra:          0.60,
		ThetaDrop:            0.30,
		ThetaMin:             0.20,
		ThetaFallback:        0.45,
		ParaphraseLow:        0.25,
		ParaphraseHigh:       0.55,
		ParaphraseOverlap:    0.70,

		VolatilityDriftWeight:         0.35,
		VolatilityAlignmentWeight:     0.25,
		VolatilityContradictionWeight: 0.25,
		VolatilityFallbackWeight:      0.15,
		ThetaReflect:                  0.40,

		SettlingConfirmations: 3,
		SettledConfirmations:  6,
		SignatureEpsilon:      0.05,

		Gate: map[domain.ResponseType]GateThresholds{
			domain.ResponseFactual:        {Intent: 0.60, Memory: 0.65, Grounding: 0.75},
			domain.ResponseExplanatory:    {Intent: 0.55, Memory: 0.50, Grounding: 0.55},
			domain.ResponseConversational: {Intent: 0.45, Memory: 0.30, Grounding: 0.30},
		},
		QuotedGroundingFloor: 0.50,
		QuotedMaxLen:         80,
	}
}
