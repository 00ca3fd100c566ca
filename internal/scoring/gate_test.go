package scoring

import (
	"testing"

	"github.com/credence-ai/credence/internal/domain"
)

func TestEvaluateGate_BlockingAlwaysRejects(t *testing.T) {
	cfg := DefaultConfig()

	decision := EvaluateGate(GateInput{
		ResponseType:    domain.ResponseFactual,
		IntentAlignment: 1,
		MemoryAlignment: 1,
		Grounding:       1,
		Severity:        domain.SeverityBlocking,
	}, cfg)

	if decision.Outcome != domain.GateReject {
		t.Fatalf("outcome = %v, want reject", decision.Outcome)
	}
	if decision.Reason != "blocking contradiction" {
		t.Errorf("reason = %q", decision.Reason)
	}
}

func TestEvaluateGate_Thresholds(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		in          GateInput
		wantOutcome domain.GateOutcome
		wantReason  string
	}{
		{
			"factual pass",
			GateInput{ResponseType: domain.ResponseFactual, IntentAlignment: 0.8, MemoryAlignment: 0.8, Grounding: 0.8},
			domain.GateAcceptBelief, "thresholds met",
		},
		{
			"factual intent short",
			GateInput{ResponseType: domain.ResponseFactual, IntentAlignment: 0.5, MemoryAlignment: 0.8, Grounding: 0.8},
			domain.GateAcceptSpeech, "intent alignment below threshold",
		},
		{
			"factual memory short",
			GateInput{ResponseType: domain.ResponseFactual, IntentAlignment: 0.8, MemoryAlignment: 0.5, Grounding: 0.8},
			domain.GateAcceptSpeech, "memory alignment below threshold",
		},
		{
			"factual grounding short",
			GateInput{ResponseType: domain.ResponseFactual, IntentAlignment: 0.8, MemoryAlignment: 0.8, Grounding: 0.6},
			domain.GateAcceptSpeech, "grounding below threshold",
		},
		{
			"conversational bar is lower",
			GateInput{ResponseType: domain.ResponseConversational, IntentAlignment: 0.5, MemoryAlignment: 0.35, Grounding: 0.35},
			domain.GateAcceptBelief, "thresholds met",
		},
		{
			"unknown type degrades to speech",
			GateInput{ResponseType: domain.ResponseType("poetic"), IntentAlignment: 1, MemoryAlignment: 1, Grounding: 1},
			domain.GateAcceptSpeech, "unknown response type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := EvaluateGate(tt.in, cfg)
			if decision.Outcome != tt.wantOutcome || decision.Reason != tt.wantReason {
				t.Errorf("EvaluateGate() = (%v, %q), want (%v, %q)",
					decision.Outcome, decision.Reason, tt.wantOutcome, tt.wantReason)
			}
		})
	}
}

func TestEvaluateGate_QuotedExtraction(t *testing.T) {
	cfg := DefaultConfig()
	memory := "User works at Microsoft as a backend engineer"

	base := GateInput{
		ResponseType:    domain.ResponseFactual,
		IntentAlignment: 0.8,
		MemoryAlignment: 0.8,
		Grounding:       0.6, // below the factual bar, above the quoted floor
	}

	t.Run("short verbatim quote passes", func(t *testing.T) {
		in := base
		in.AnswerText = "Microsoft"
		in.QuotedFromMemory = memory
		if d := EvaluateGate(in, cfg); d.Outcome != domain.GateAcceptBelief {
			t.Errorf("outcome = %v (%q), want belief", d.Outcome, d.Reason)
		}
	})

	t.Run("case-insensitive match", func(t *testing.T) {
		in := base
		in.AnswerText = "MICROSOFT"
		in.QuotedFromMemory = memory
		if d := EvaluateGate(in, cfg); d.Outcome != domain.GateAcceptBelief {
			t.Errorf("outcome = %v (%q), want belief", d.Outcome, d.Reason)
		}
	})

	t.Run("non-quoted answer keeps the full bar", func(t *testing.T) {
		in := base
		in.AnswerText = "They work at Google"
		in.QuotedFromMemory = memory
		d := EvaluateGate(in, cfg)
		if d.Outcome != domain.GateAcceptSpeech || d.Reason != "grounding below threshold" {
			t.Errorf("outcome = (%v, %q), want speech on grounding", d.Outcome, d.Reason)
		}
	})

	t.Run("long answers keep the full bar even when quoted", func(t *testing.T) {
		long := memory + " and has been for years, enjoying distributed systems work a lot"
		in := base
		in.AnswerText = long
		in.QuotedFromMemory = long
		if d := EvaluateGate(in, cfg); d.Outcome != domain.GateAcceptSpeech {
			t.Errorf("outcome = %v, want speech", d.Outcome)
		}
	})

	t.Run("relief is factual-only", func(t *testing.T) {
		in := base
		in.ResponseType = domain.ResponseExplanatory
		in.Grounding = 0.52 // below the explanatory bar
		in.AnswerText = "Microsoft"
		in.QuotedFromMemory = memory
		if d := EvaluateGate(in, cfg); d.Outcome != domain.GateAcceptSpeech {
			t.Errorf("outcome = %v, want speech", d.Outcome)
		}
	})
}

func TestEvaluateGate_NoteSeverityFlagsDisclosure(t *testing.T) {
	cfg := DefaultConfig()

	decision := EvaluateGate(GateInput{
		ResponseType:    domain.ResponseConversational,
		IntentAlignment: 0.9,
		MemoryAlignment: 0.9,
		Grounding:       0.9,
		Severity:        domain.SeverityNote,
	}, cfg)

	if decision.Outcome != domain.GateAcceptBelief {
		t.Fatalf("outcome = %v, want belief", decision.Outcome)
	}
	if !decision.DiscloseNote {
		t.Error("note severity should set DiscloseNote on an accepted answer")
	}
}
