package scoring

import (
	"testing"

	"github.com/credence-ai/credence/internal/domain"
)

func TestDetectContradiction(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		in         ContradictionInput
		wantFired  bool
		wantReason string
	}{
		{
			"high drift fires",
			ContradictionInput{Drift: 0.8, ConfNew: 0.9, ConfPrior: 0.9, Source: domain.SourceUser},
			true, "high drift",
		},
		{
			"moderate drift alone is quiet",
			ContradictionInput{Drift: 0.5, ConfNew: 0.9, ConfPrior: 0.9, Source: domain.SourceUser},
			false, "none",
		},
		{
			"confidence drop with some drift fires",
			ContradictionInput{Drift: 0.25, ConfNew: 0.5, ConfPrior: 0.9, Source: domain.SourceUser},
			true, "confidence drop",
		},
		{
			"confidence drop without drift is quiet",
			ContradictionInput{Drift: 0.1, ConfNew: 0.5, ConfPrior: 0.9, Source: domain.SourceUser},
			false, "none",
		},
		{
			"fallback sources trip at lower drift",
			ContradictionInput{Drift: 0.5, ConfNew: 0.9, ConfPrior: 0.9, Source: domain.SourceFallback},
			true, "fallback drift",
		},
		{
			"model output counts as low provenance",
			ContradictionInput{Drift: 0.5, ConfNew: 0.9, ConfPrior: 0.9, Source: domain.SourceModelOutput},
			true, "fallback drift",
		},
		{
			"paraphrase override suppresses the fallback rule",
			ContradictionInput{
				Drift: 0.5, ConfNew: 0.9, ConfPrior: 0.9, Source: domain.SourceFallback,
				TextNew:   "On 2024-05-01 Alice will meet in Paris",
				TextPrior: "Meeting with Alice in Paris on 2024-05-01",
			},
			false, "paraphrase",
		},
		{
			"paraphrase override suppresses the confidence rule",
			ContradictionInput{
				Drift: 0.3, ConfNew: 0.5, ConfPrior: 0.9, Source: domain.SourceUser,
				TextNew:   "On 2024-05-01 Alice will meet in Paris",
				TextPrior: "Meeting with Alice in Paris on 2024-05-01",
			},
			false, "paraphrase",
		},
		{
			"override needs the drift band: high drift always fires",
			ContradictionInput{
				Drift: 0.8, ConfNew: 0.9, ConfPrior: 0.9, Source: domain.SourceUser,
				TextNew:   "On 2024-05-01 Alice will meet in Paris",
				TextPrior: "Meeting with Alice in Paris on 2024-05-01",
			},
			true, "high drift",
		},
		{
			"override needs key-element overlap",
			ContradictionInput{
				Drift: 0.5, ConfNew: 0.9, ConfPrior: 0.9, Source: domain.SourceFallback,
				TextNew:   "Employed at Amazon since March",
				TextPrior: "Works at Microsoft in Redmond",
			},
			true, "fallback drift",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fired, reason := DetectContradiction(tt.in, cfg)
			if fired != tt.wantFired || reason != tt.wantReason {
				t.Errorf("DetectContradiction() = (%v, %q), want (%v, %q)", fired, reason, tt.wantFired, tt.wantReason)
			}

			// Same input, same verdict. The rules carry no state.
			fired2, reason2 := DetectContradiction(tt.in, cfg)
			if fired2 != fired || reason2 != reason {
				t.Error("detector is not deterministic")
			}
		})
	}
}

func TestKeyElements(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"proper nouns and numbers", "I moved to Berlin on May 3, 2024.", []string{"berlin", "may", "2024"}},
		{"lowercase filler dropped", "works at the office every day", nil},
		{"single letters dropped", "I A b", nil},
		{"duplicates collapse", "Paris, Paris and PARIS", []string{"paris"}},
		{"digits anywhere qualify", "room b42 on floor 3a", []string{"b42", "3a"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeyElements(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("KeyElements(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("element %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestKeyElementOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Alice in Paris 2024", "Alice in Paris 2024", 1},
		{"disjoint", "Amazon Seattle", "Microsoft Redmond", 0},
		{"one side empty", "just lowercase words", "Alice in Paris", 0},
		{"both empty", "", "", 0},
		{"partial against the larger set", "Alice Paris", "Alice Paris Berlin 2024", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeyElementOverlap(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("KeyElementOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
