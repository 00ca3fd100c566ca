package domain

// SlotValue is one extracted "slot = value" fact. Normalized is the
// comparison form (lowercased, canonicalized) the extractor produced.
type SlotValue struct {
	Value      string `json:"value"`
	Normalized string `json:"normalized"`
}

// SlotExtractor is the external fact-slot extractor, treated as an opaque
// pure function. This core only uses it to scope contradictions to slots and
// to name slots in clarification prompts.
type SlotExtractor interface {
	Extract(text string) map[string]SlotValue
}
