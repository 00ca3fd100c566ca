package scoring

import (
	"strings"
	"unicode"

	"github.com/credence-ai/credence/internal/domain"
)

// ContradictionInput is everything the trigger rules are allowed to see.
type ContradictionInput struct {
	Drift     float64
	ConfNew   float64
	ConfPrior float64
	Source    domain.Source
	TextNew   string
	TextPrior string
}

// triggerRule is one entry in the ordered rule list. matched=true stops
// evaluation; contradiction carries the verdict for that rule.
type triggerRule struct {
	reason string
	eval   func(in ContradictionInput, cfg Config) (matched, contradiction bool)
}

// triggerRules is evaluated in order and the first match wins. The order is
// a tested contract: the paraphrase override must run before any positive
// rule so wording variation cannot be promoted to a conflict.
var triggerRules = []triggerRule{
	{
		reason: "paraphrase",
		eval: func(in ContradictionInput, cfg Config) (bool, bool) {
			if in.Drift < cfg.ParaphraseLow || in.Drift > cfg.ParaphraseHigh {
				return false, false
			}
			if KeyElementOverlap(in.TextNew, in.TextPrior) >= cfg.ParaphraseOverlap {
				return true, false
			}
			return false, false
		},
	},
	{
		reason: "high drift",
		eval: func(in ContradictionInput, cfg Config) (bool, bool) {
			return in.Drift > cfg.ThetaContra, true
		},
	},
	{
		reason: "confidence drop",
		eval: func(in ContradictionInput, cfg Config) (bool, bool) {
			return (in.ConfPrior-in.ConfNew) > cfg.ThetaDrop && in.Drift > cfg.ThetaMin, true
		},
	},
	{
		reason: "fallback drift",
		eval: func(in ContradictionInput, cfg Config) (bool, bool) {
			return in.Source.LowProvenance() && in.Drift > cfg.ThetaFallback, true
		},
	},
}

// DetectContradiction runs the ordered trigger rules and returns the first
// match's verdict and reason. No match means no contradiction.
func DetectContradiction(in ContradictionInput, cfg Config) (bool, string) {
	for _, r := range triggerRules {
		if matched, contradiction := r.eval(in, cfg); matched {
			return contradiction, r.reason
		}
	}
	return false, "none"
}

// KeyElements extracts the numeric and proper-noun tokens of a text,
// lowercased. Single-letter tokens (the pronoun "I", initialled articles)
// carry no signal and are skipped.
func KeyElements(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Fields(text) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(tok)) < 2 {
			continue
		}
		hasDigit := false
		for _, r := range tok {
			if unicode.IsDigit(r) {
				hasDigit = true
				break
			}
		}
		first := []rune(tok)[0]
		if !hasDigit && !unicode.IsUpper(first) {
			continue
		}
		key := strings.ToLower(tok)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// KeyElementOverlap is the shared fraction of key elements between two
// texts, measured against the larger element set. Texts with no key
// elements on either side overlap fully only when both are element-free;
// that case yields 0 so the override never fires on empty evidence.
func KeyElementOverlap(a, b string) float64 {
	ea, eb := KeyElements(a), KeyElements(b)
	if len(ea) == 0 || len(eb) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(ea))
	for _, e := range ea {
		set[e] = struct{}{}
	}
	shared := 0
	for _, e := range eb {
		if _, ok := set[e]; ok {
			shared++
		}
	}
	denom := len(ea)
	if len(eb) > denom {
		denom = len(eb)
	}
	return float64(shared) / float64(denom)
}
