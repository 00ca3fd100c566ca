package service

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DisclosureOutcome is what happens to a medium-confidence fact.
type DisclosureOutcome string

const (
	DisclosureAccept  DisclosureOutcome = "accept"
	DisclosureClarify DisclosureOutcome = "clarify"
	DisclosureReject  DisclosureOutcome = "reject"
)

// DisclosureZone buckets the fact's validity probability.
type DisclosureZone string

const (
	ZoneGreen  DisclosureZone = "green"
	ZoneYellow DisclosureZone = "yellow"
	ZoneRed    DisclosureZone = "red"
)

// DisclosureDecision is the verdict for one fact. BudgetExhausted marks
// silent yellow-zone accepts so observability can tell them from green ones.
type DisclosureDecision struct {
	Outcome         DisclosureOutcome `json:"outcome"`
	Zone            DisclosureZone    `json:"zone"`
	Prompt          string            `json:"prompt,omitempty"`
	BudgetExhausted bool              `json:"budget_exhausted,omitempty"`
}

// DisclosureConfig holds the zone thresholds, the clarification budget, and
// the high-stakes slots that bypass it.
type DisclosureConfig struct {
	GreenThreshold  float64
	RedThreshold    float64
	MaxPerSession   int
	MaxPerSlot      int
	Cooldown        time.Duration
	HighStakesSlots []string
}

// DefaultDisclosureConfig matches the shipped calibration: green >= 0.9,
// red < 0.4.
func DefaultDisclosureConfig() DisclosureConfig {
	return DisclosureConfig{
		GreenThreshold: 0.9,
		RedThreshold:   0.4,
		MaxPerSession:  5,
		MaxPerSlot:     2,
		Cooldown:       2 * time.Minute,
		HighStakesSlots: []string{
			"identity", "employer", "location", "medical", "legal", "account_status",
		},
	}
}

// sessionBudget tracks clarifications for one conversation. Budgets are
// never shared across sessions.
type sessionBudget struct {
	total    int
	perSlot  map[string]int
	lastAsk  map[string]time.Time
}

// DisclosureService decides accept / clarify / reject for single facts in
// the yellow zone, subject to a per-session clarification budget so the user
// is never asked the same question endlessly. Budget exhaustion fails open.
type DisclosureService struct {
	cfg    DisclosureConfig
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionBudget

	now func() time.Time
}

func NewDisclosureService(cfg DisclosureConfig, logger *zap.Logger) *DisclosureService {
	return &DisclosureService{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*sessionBudget),
		now:      time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *DisclosureService) SetClock(now func() time.Time) {
	s.now = now
}

// Decide buckets pValid into a zone and, in the yellow zone, applies the
// high-stakes override and the clarification budget.
func (s *DisclosureService) Decide(sessionKey string, pValid float64, slot, oldValue, newValue string) DisclosureDecision {
	switch {
	case pValid >= s.cfg.GreenThreshold:
		return DisclosureDecision{Outcome: DisclosureAccept, Zone: ZoneGreen}
	case pValid < s.cfg.RedThreshold:
		return DisclosureDecision{Outcome: DisclosureReject, Zone: ZoneRed}
	}

	if s.highStakes(slot) {
		return DisclosureDecision{
			Outcome: DisclosureClarify,
			Zone:    ZoneYellow,
			Prompt:  clarificationPrompt(slot, oldValue, newValue),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	budget := s.sessions[sessionKey]
	if budget == nil {
		budget = &sessionBudget{
			perSlot: make(map[string]int),
			lastAsk: make(map[string]time.Time),
		}
		s.sessions[sessionKey] = budget
	}

	now := s.now()
	exhausted := budget.total >= s.cfg.MaxPerSession ||
		budget.perSlot[slot] >= s.cfg.MaxPerSlot
	if !exhausted {
		if last, ok := budget.lastAsk[slot]; ok && now.Sub(last) < s.cfg.Cooldown {
			exhausted = true
		}
	}

	if exhausted {
		s.logger.Debug("clarification budget exhausted, accepting silently",
			zap.String("session", sessionKey),
			zap.String("slot", slot))
		return DisclosureDecision{
			Outcome:         DisclosureAccept,
			Zone:            ZoneYellow,
			BudgetExhausted: true,
		}
	}

	budget.total++
	budget.perSlot[slot]++
	budget.lastAsk[slot] = now

	return DisclosureDecision{
		Outcome: DisclosureClarify,
		Zone:    ZoneYellow,
		Prompt:  clarificationPrompt(slot, oldValue, newValue),
	}
}

// EndSession drops the session's budget counters.
func (s *DisclosureService) EndSession(sessionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey)
}

func (s *DisclosureService) highStakes(slot string) bool {
	for _, h := range s.cfg.HighStakesSlots {
		if h == slot {
			return true
		}
	}
	return false
}

func clarificationPrompt(slot, oldValue, newValue string) string {
	if oldValue != "" && newValue != "" {
		return fmt.Sprintf("I previously had %s as %q, but you just mentioned %q. Which is correct?", slot, oldValue, newValue)
	}
	if newValue != "" {
		return fmt.Sprintf("Just to confirm: is your %s %q?", slot, newValue)
	}
	return fmt.Sprintf("Could you confirm your %s?", slot)
}
