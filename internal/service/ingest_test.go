package service

import (
	"context"
	"testing"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/scoring"
	"go.uber.org/zap"
)

func newIngestFixture(extractor domain.SlotExtractor) (*IngestService, *MemoryService, *mockMemoryStore) {
	cfg := scoring.DefaultConfig()
	memStore := newMockMemoryStore()
	conStore := newMockContradictionStore(memStore)
	memSvc := NewMemoryService(memStore, memStore, newMockBeliefSpeechStore(), cfg, zap.NewNop())
	ledger := NewLedgerService(conStore, memStore, memSvc, cfg, zap.NewNop())
	return NewIngestService(memSvc, ledger, extractor, cfg, zap.NewNop()), memSvc, memStore
}

func TestIngestService_FirstStatementNeverConflicts(t *testing.T) {
	svc, _, _ := newIngestFixture(nil)

	result, err := svc.Ingest(context.Background(), IngestRequest{
		InsertRequest: InsertRequest{
			Content: "User works at Microsoft", Embedding: []float32{1, 0}, Confidence: 0.9, Source: domain.SourceUser,
		},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Contradiction != nil {
		t.Errorf("empty store produced a contradiction: %+v", result.Contradiction)
	}
	if result.Memory == nil || result.Memory.ID.String() == "" {
		t.Error("memory not stored")
	}
}

func TestIngestService_RestatementIsQuiet(t *testing.T) {
	svc, _, _ := newIngestFixture(nil)

	first := IngestRequest{InsertRequest: InsertRequest{
		Content: "User works at Microsoft", Embedding: []float32{1, 0}, Confidence: 0.9, Source: domain.SourceUser,
	}}
	if _, err := svc.Ingest(context.Background(), first); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// Same embedding, same confidence: drift is zero, nothing fires.
	result, err := svc.Ingest(context.Background(), first)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Contradiction != nil {
		t.Errorf("restatement produced a contradiction: %s", result.TriggerReason)
	}
}

func TestIngestService_EmployerChangeScenario(t *testing.T) {
	extractor := slotMapExtractor{
		"User works at Microsoft as a backend engineer": {
			"employer": {Value: "Microsoft", Normalized: "microsoft"},
			"role":     {Value: "backend engineer", Normalized: "backend engineer"},
		},
	}
	svc, memSvc, _ := newIngestFixture(extractor)

	prior, err := svc.Ingest(context.Background(), IngestRequest{
		InsertRequest: InsertRequest{
			Content: "User works at Microsoft as a backend engineer", Embedding: []float32{1, 0, 0}, Confidence: 0.95, Source: domain.SourceUser,
		},
	})
	if err != nil {
		t.Fatalf("ingest prior: %v", err)
	}
	trustBefore := prior.Memory.Trust

	result, err := svc.Ingest(context.Background(), IngestRequest{
		InsertRequest: InsertRequest{
			Content: "User works at Amazon as a backend engineer", Embedding: []float32{0.2, 0.98, 0}, Confidence: 0.9, Source: domain.SourceUser,
		},
		Slots: map[string]domain.SlotValue{
			"employer": {Value: "Amazon", Normalized: "amazon"},
			"role":     {Value: "backend engineer", Normalized: "backend engineer"},
		},
	})
	if err != nil {
		t.Fatalf("ingest conflicting: %v", err)
	}

	if result.Contradiction == nil {
		t.Fatal("expected a contradiction")
	}
	if result.TriggerReason != "high drift" {
		t.Errorf("trigger = %q, want high drift", result.TriggerReason)
	}

	// The role slot agrees on both sides; only the employer slot is scoped.
	entry := result.Contradiction
	if len(entry.AffectsSlots) != 1 || entry.AffectsSlots[0] != "employer" {
		t.Errorf("affects_slots = %v, want [employer]", entry.AffectsSlots)
	}
	if entry.OldMemoryID != prior.Memory.ID || entry.NewMemoryID != result.Memory.ID {
		t.Error("ledger entry references the wrong memories")
	}
	if entry.Status != domain.StatusOpen {
		t.Errorf("status = %v, want open", entry.Status)
	}

	// The prior keeps its text but pays in trust. Both statements survive.
	old, err := memSvc.GetMemory(context.Background(), prior.Memory.ID)
	if err != nil {
		t.Fatalf("get prior: %v", err)
	}
	if old.Trust >= trustBefore {
		t.Errorf("prior trust = %v, want below %v", old.Trust, trustBefore)
	}
	if old.Content != "User works at Microsoft as a backend engineer" {
		t.Error("prior content was mutated")
	}
	if n, _ := memSvc.MemoryCount(context.Background()); n != 2 {
		t.Errorf("memory count = %d, want both statements kept", n)
	}
}

func TestIngestService_UnrelatedStatementsLeaveContestedTrustAlone(t *testing.T) {
	svc, memSvc, _ := newIngestFixture(nil)

	// Seed a contested memory: a prior plus a direct conflict against it.
	prior, err := svc.Ingest(context.Background(), IngestRequest{
		InsertRequest: InsertRequest{
			Content: "User works at Microsoft", Embedding: []float32{1, 0, 0, 0}, Confidence: 0.9, Source: domain.SourceUser,
		},
	})
	if err != nil {
		t.Fatalf("ingest prior: %v", err)
	}
	conflict, err := svc.Ingest(context.Background(), IngestRequest{
		InsertRequest: InsertRequest{
			Content: "Employed at Amazon", Embedding: []float32{0.2, 0.98, 0, 0}, Confidence: 0.9, Source: domain.SourceUser,
		},
	})
	if err != nil {
		t.Fatalf("ingest conflict: %v", err)
	}
	if conflict.Contradiction == nil {
		t.Fatal("expected the seed conflict")
	}

	contested, _ := memSvc.GetMemory(context.Background(), prior.Memory.ID)
	trustBefore := contested.Trust

	// Ten orthogonal statements: none of them is related to the contested
	// memory, so its trust must not move again.
	for i := 0; i < 10; i++ {
		emb := make([]float32, 4)
		emb[2+i%2] = 1
		if _, err := svc.Ingest(context.Background(), IngestRequest{
			InsertRequest: InsertRequest{
				Content: "unrelated statement", Embedding: emb, Confidence: 0.9, Source: domain.SourceUser,
			},
		}); err != nil {
			t.Fatalf("ingest unrelated %d: %v", i, err)
		}
	}

	after, _ := memSvc.GetMemory(context.Background(), prior.Memory.ID)
	if after.Trust != trustBefore {
		t.Errorf("contested memory trust leaked: %v -> %v", trustBefore, after.Trust)
	}
}

func TestIngestService_NoExtractorUsesRequestSlots(t *testing.T) {
	svc, _, _ := newIngestFixture(nil)

	if _, err := svc.Ingest(context.Background(), IngestRequest{
		InsertRequest: InsertRequest{
			Content: "User works at Microsoft", Embedding: []float32{1, 0}, Confidence: 0.9, Source: domain.SourceUser,
		},
	}); err != nil {
		t.Fatalf("ingest prior: %v", err)
	}

	result, err := svc.Ingest(context.Background(), IngestRequest{
		InsertRequest: InsertRequest{
			Content: "Employed at Amazon now", Embedding: []float32{0.2, 0.98}, Confidence: 0.9, Source: domain.SourceUser,
		},
		Slots: map[string]domain.SlotValue{
			"employer": {Value: "Amazon", Normalized: "amazon"},
		},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Contradiction == nil {
		t.Fatal("expected a contradiction")
	}
	if len(result.Contradiction.AffectsSlots) != 1 || result.Contradiction.AffectsSlots[0] != "employer" {
		t.Errorf("affects_slots = %v, want [employer]", result.Contradiction.AffectsSlots)
	}
}

func TestClassifyContradiction(t *testing.T) {
	tests := []struct {
		name     string
		reason   string
		textNew  string
		textOld  string
		want     domain.ContradictionType
	}{
		{"confidence drop reads as revision", "confidence drop", "", "", domain.TypeRevision},
		{"shared key elements read as refinement", "high drift", "User works at Microsoft in Redmond", "User joined Microsoft", domain.TypeRefinement},
		{"disjoint statements read as conflict", "high drift", "Employed at Amazon", "User works at Microsoft", domain.TypeConflict},
		{"unknown reasons default to conflict", "something else", "", "", domain.TypeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyContradiction(tt.reason, tt.textNew, tt.textOld); got != tt.want {
				t.Errorf("classifyContradiction(%q) = %v, want %v", tt.reason, got, tt.want)
			}
		})
	}
}
