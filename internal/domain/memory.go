package domain

import (
	"time"

	"github.com/google/uuid"
)

// Source indicates the provenance of a stored memory. Trust policy is
// source-dependent: low-provenance sources are capped and never reach full
// trust no matter how often they are reinforced.
type Source string

const (
	SourceUser        Source = "user"
	SourceSystem      Source = "system"
	SourceFallback    Source = "fallback"
	SourceExternal    Source = "external"
	SourceReflection  Source = "reflection"
	SourceModelOutput Source = "model_output"
)

func ValidSource(s string) bool {
	switch Source(s) {
	case SourceUser, SourceSystem, SourceFallback, SourceExternal, SourceReflection, SourceModelOutput:
		return true
	}
	return false
}

// LowProvenance reports whether trust for this source is subject to the
// fallback trust ceiling.
func (s Source) LowProvenance() bool {
	switch s {
	case SourceFallback, SourceModelOutput:
		return true
	}
	return false
}

// CompressionMode is chosen once at insert time from the significance score
// and never changes afterwards.
type CompressionMode string

const (
	CompressionLossless CompressionMode = "lossless"
	CompressionSketch   CompressionMode = "sketch"
	CompressionHybrid   CompressionMode = "hybrid"
)

func ValidCompressionMode(m string) bool {
	switch CompressionMode(m) {
	case CompressionLossless, CompressionSketch, CompressionHybrid:
		return true
	}
	return false
}

// Memory is a single stored belief. Confidence is fixed at creation ("how
// certain it sounded"); Trust is mutable in [0,1] ("how validated it has
// proven") and changes only through the two trust-evolution operations.
// Memories are never deleted, only outranked by newer records.
type Memory struct {
	ID              uuid.UUID       `json:"id"`
	Embedding       []float32       `json:"-"`
	Content         string          `json:"content"`
	Confidence      float64         `json:"confidence"`
	Trust           float64         `json:"trust"`
	Source          Source          `json:"source"`
	CompressionMode CompressionMode `json:"compression_mode"`
	Context         string          `json:"context,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
