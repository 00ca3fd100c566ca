package scoring

import (
	"strings"

	"github.com/credence-ai/credence/internal/domain"
)

// GateInput is the per-answer evidence the admission check consumes. The
// response type and severity are classified by the caller; the gate only
// applies thresholds.
type GateInput struct {
	ResponseType    domain.ResponseType
	IntentAlignment float64
	MemoryAlignment float64
	Grounding       float64
	Severity        domain.ContradictionSeverity
	// AnswerText and QuotedFromMemory support the relaxed grounding bar for
	// short, directly quoted fact lookups.
	AnswerText       string
	QuotedFromMemory string
}

// EvaluateGate decides accept-as-belief / accept-as-speech / reject. A
// blocking severity rejects before any threshold runs; a note severity can
// pass but is flagged for disclosure.
func EvaluateGate(in GateInput, cfg Config) domain.GateDecision {
	if in.Severity == domain.SeverityBlocking {
		return domain.GateDecision{
			Outcome:  domain.GateReject,
			Reason:   "blocking contradiction",
			Severity: in.Severity,
		}
	}

	th, ok := cfg.Gate[in.ResponseType]
	if !ok {
		return domain.GateDecision{
			Outcome:  domain.GateAcceptSpeech,
			Reason:   "unknown response type",
			Severity: in.Severity,
		}
	}

	grounding := th.Grounding
	if in.ResponseType == domain.ResponseFactual && isQuotedExtraction(in, cfg) {
		// Trivially-correct fact lookups should not be penalized for brevity.
		grounding = cfg.QuotedGroundingFloor
	}

	switch {
	case in.IntentAlignment < th.Intent:
		return speech(in, "intent alignment below threshold")
	case in.MemoryAlignment < th.Memory:
		return speech(in, "memory alignment below threshold")
	case in.Grounding < grounding:
		return speech(in, "grounding below threshold")
	}

	return domain.GateDecision{
		Outcome:      domain.GateAcceptBelief,
		Reason:       "thresholds met",
		Severity:     in.Severity,
		DiscloseNote: in.Severity == domain.SeverityNote,
	}
}

func speech(in GateInput, reason string) domain.GateDecision {
	return domain.GateDecision{
		Outcome:      domain.GateAcceptSpeech,
		Reason:       reason,
		Severity:     in.Severity,
		DiscloseNote: in.Severity == domain.SeverityNote,
	}
}

// isQuotedExtraction reports whether the answer is a short verbatim
// extraction from the memory it was grounded in.
func isQuotedExtraction(in GateInput, cfg Config) bool {
	answer := strings.TrimSpace(in.AnswerText)
	if answer == "" || in.QuotedFromMemory == "" {
		return false
	}
	if len(answer) > cfg.QuotedMaxLen {
		return false
	}
	return strings.Contains(strings.ToLower(in.QuotedFromMemory), strings.ToLower(answer))
}
