// Package scoring is the pure math core: similarity, recency, belief
// weighting, significance, trust evolution, contradiction triggers, gate
// checks, and volatility. Nothing here touches I/O or shared state; every
// function takes explicit inputs and is deterministic.
package scoring

import (
	"math"
	"time"

	"github.com/credence-ai/credence/internal/domain"
)

// Clamp01 bounds a score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Similarity is the cosine similarity of two vectors. Mismatched dimensions
// and zero-norm vectors yield 0: memories may span embedding generations, so
// "no signal" is a legitimate outcome, not an error.
func Similarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Drift is the semantic distance 1 - similarity.
func Drift(a, b []float32) float64 {
	return 1 - Similarity(a, b)
}

// RecencyWeight decays exponentially with age. halfLifeSeconds is the lambda
// of exp(-(now-then)/lambda); non-positive values disable decay.
func RecencyWeight(tMemory, tNow time.Time, halfLifeSeconds float64) float64 {
	if halfLifeSeconds <= 0 {
		return 1
	}
	age := tNow.Sub(tMemory).Seconds()
	if age < 0 {
		age = 0
	}
	return math.Exp(-age / halfLifeSeconds)
}

// BeliefWeight blends validated trust against as-stated confidence.
func BeliefWeight(trust, confidence, alpha float64) float64 {
	return alpha*trust + (1-alpha)*confidence
}

// RetrievalScore is the product of the three retrieval signals.
func RetrievalScore(similarity, recency, beliefWeight float64) float64 {
	return similarity * recency * beliefWeight
}

// Novelty is one minus the best similarity against everything already
// stored. An empty store means maximal novelty.
func Novelty(vector []float32, existing [][]float32) float64 {
	best := 0.0
	for _, e := range existing {
		if s := Similarity(vector, e); s > best {
			best = s
		}
	}
	return Clamp01(1 - best)
}

// SignificanceInputs are the signals scored once, at insert time.
type SignificanceInputs struct {
	Emotion         float64
	Novelty         float64
	UserMarked      bool
	Contradiction   bool
	FutureRelevance float64
}

// Significance is the weighted sum deciding how much detail to retain.
func Significance(in SignificanceInputs, cfg Config) float64 {
	score := cfg.WeightEmotion*in.Emotion +
		cfg.WeightNovelty*in.Novelty +
		cfg.WeightFutureRelevance*in.FutureRelevance
	if in.UserMarked {
		score += cfg.WeightUserMarked
	}
	if in.Contradiction {
		score += cfg.WeightContradiction
	}
	return Clamp01(score)
}

// CompressionModeFor maps a significance score to a retention mode.
func CompressionModeFor(significance float64, cfg Config) domain.CompressionMode {
	switch {
	case significance >= cfg.LosslessThreshold:
		return domain.CompressionLossless
	case significance <= cfg.SketchThreshold:
		return domain.CompressionSketch
	default:
		return domain.CompressionHybrid
	}
}

// InitialTrust derives the starting trust from source and significance.
// Low-provenance sources are capped regardless of the computed value.
func InitialTrust(source domain.Source, significance float64, cfg Config) float64 {
	var base float64
	switch source {
	case domain.SourceUser:
		base = cfg.TrustBaseUser
	case domain.SourceSystem:
		base = cfg.TrustBaseSystem
	case domain.SourceExternal:
		base = cfg.TrustBaseExternal
	case domain.SourceReflection:
		base = cfg.TrustBaseReflection
	case domain.SourceFallback:
		base = cfg.TrustBaseFallback
	case domain.SourceModelOutput:
		base = cfg.TrustBaseModelOutput
	default:
		base = cfg.TrustBaseExternal
	}
	return CapFallbackTrust(Clamp01(base+cfg.SignificanceTrustBonus*significance), source, cfg)
}

// EvolveAligned reinforces trust after an answer grounded in this memory
// passed the gate. Low drift earns more.
func EvolveAligned(trust, drift float64, cfg Config) float64 {
	return Clamp01(trust + cfg.EtaPos*(1-drift))
}

// EvolveReinforced is the milder reinforcement used by ledger confirmations.
func EvolveReinforced(trust, drift float64, cfg Config) float64 {
	return Clamp01(trust + cfg.EtaReinforce*(1-drift))
}

// EvolveContradicted degrades trust multiplicatively so repeated
// contradictions approach but never cross zero.
func EvolveContradicted(trust, drift float64, cfg Config) float64 {
	return Clamp01(trust * (1 - cfg.EtaNeg*drift))
}

// CapFallbackTrust enforces the low-provenance ceiling.
func CapFallbackTrust(trust float64, source domain.Source, cfg Config) float64 {
	if source.LowProvenance() && trust > cfg.FallbackTrustCap {
		return cfg.FallbackTrustCap
	}
	return Clamp01(trust)
}

// VolatilityInputs feed the reflection-queue priority.
type VolatilityInputs struct {
	Drift           float64
	MemoryAlignment float64
	IsContradiction bool
	IsFallback      bool
}

// Volatility ranks how urgently an open conflict needs reflection.
func Volatility(in VolatilityInputs, cfg Config) float64 {
	score := cfg.VolatilityDriftWeight*in.Drift +
		cfg.VolatilityAlignmentWeight*(1-Clamp01(in.MemoryAlignment))
	if in.IsContradiction {
		score += cfg.VolatilityContradictionWeight
	}
	if in.IsFallback {
		score += cfg.VolatilityFallbackWeight
	}
	return Clamp01(score)
}

// NeedsReflection reports whether a conflict is volatile enough to queue.
func NeedsReflection(volatility float64, cfg Config) bool {
	return volatility >= cfg.ThetaReflect
}
