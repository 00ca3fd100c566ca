package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/service"
	"github.com/google/uuid"
)

type GateHandler struct {
	svc *service.GateService
}

func NewGateHandler(svc *service.GateService) *GateHandler {
	return &GateHandler{svc: svc}
}

type gateRequest struct {
	Query               string    `json:"query"`
	Answer              string    `json:"answer"`
	ResponseType        string    `json:"response_type"`
	IntentAlignment     float64   `json:"intent_alignment"`
	MemoryAlignment     float64   `json:"memory_alignment"`
	Grounding           float64   `json:"grounding"`
	DependsOnSlots      []string  `json:"depends_on_slots,omitempty"`
	SupportingMemoryIDs []string  `json:"supporting_memory_ids,omitempty"`
	OutputEmbedding     []float32 `json:"output_embedding,omitempty"`
	QuotedFromMemory    string    `json:"quoted_from_memory,omitempty"`
	Source              string    `json:"source,omitempty"`
}

func (h *GateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req gateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidResponseType(req.ResponseType) {
		writeError(w, http.StatusBadRequest, "invalid response type")
		return
	}

	memoryIDs := make([]uuid.UUID, 0, len(req.SupportingMemoryIDs))
	for _, raw := range req.SupportingMemoryIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid supporting memory id")
			return
		}
		memoryIDs = append(memoryIDs, id)
	}

	decision, err := h.svc.Evaluate(r.Context(), service.AnswerEvaluation{
		Query:               req.Query,
		Answer:              req.Answer,
		ResponseType:        domain.ResponseType(req.ResponseType),
		IntentAlignment:     req.IntentAlignment,
		MemoryAlignment:     req.MemoryAlignment,
		Grounding:           req.Grounding,
		DependsOnSlots:      req.DependsOnSlots,
		SupportingMemoryIDs: memoryIDs,
		OutputEmbedding:     req.OutputEmbedding,
		QuotedFromMemory:    req.QuotedFromMemory,
		Source:              req.Source,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
