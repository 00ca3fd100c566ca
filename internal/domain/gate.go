package domain

// ResponseType classifies a generated answer. It is supplied by the caller,
// never inferred here; each type carries its own admission thresholds.
type ResponseType string

const (
	ResponseFactual        ResponseType = "factual"
	ResponseExplanatory    ResponseType = "explanatory"
	ResponseConversational ResponseType = "conversational"
)

func ValidResponseType(t string) bool {
	switch ResponseType(t) {
	case ResponseFactual, ResponseExplanatory, ResponseConversational:
		return true
	}
	return false
}

// ContradictionSeverity is the ledger's verdict on an answer's dependency
// slots. Blocking always rejects before any threshold check runs; Note
// passes but is surfaced for optional disclosure.
type ContradictionSeverity string

const (
	SeverityNone     ContradictionSeverity = "none"
	SeverityNote     ContradictionSeverity = "note"
	SeverityBlocking ContradictionSeverity = "blocking"
)

// GateOutcome is the admission decision for one answer.
type GateOutcome string

const (
	GateAcceptBelief GateOutcome = "accept_belief"
	GateAcceptSpeech GateOutcome = "accept_speech"
	GateReject       GateOutcome = "reject"
)

// GateDecision carries the outcome plus a machine-readable reason and
// whether a contradiction note should be disclosed alongside the answer.
type GateDecision struct {
	Outcome      GateOutcome           `json:"outcome"`
	Reason       string                `json:"reason"`
	Severity     ContradictionSeverity `json:"severity"`
	DiscloseNote bool                  `json:"disclose_note"`
}
