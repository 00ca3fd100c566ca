package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MemoryHandler struct {
	ingest *service.IngestService
	svc    *service.MemoryService
}

func NewMemoryHandler(ingest *service.IngestService, svc *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{ingest: ingest, svc: svc}
}

type ingestRequest struct {
	Content             string                      `json:"content"`
	Embedding           []float32                   `json:"embedding"`
	Confidence          float64                     `json:"confidence"`
	Source              string                      `json:"source"`
	Context             string                      `json:"context,omitempty"`
	Tags                []string                    `json:"tags,omitempty"`
	UserMarked          bool                        `json:"user_marked,omitempty"`
	ContradictionSignal bool                        `json:"contradiction_signal,omitempty"`
	Emotion             float64                     `json:"emotion,omitempty"`
	FutureRelevance     float64                     `json:"future_relevance,omitempty"`
	Slots               map[string]domain.SlotValue `json:"slots,omitempty"`
}

// Ingest stores a statement and runs contradiction detection against the
// nearest prior belief.
func (h *MemoryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if !domain.ValidSource(req.Source) {
		writeError(w, http.StatusBadRequest, "invalid source")
		return
	}

	result, err := h.ingest.Ingest(r.Context(), service.IngestRequest{
		InsertRequest: service.InsertRequest{
			Content:             req.Content,
			Embedding:           req.Embedding,
			Confidence:          req.Confidence,
			Source:              domain.Source(req.Source),
			Context:             req.Context,
			Tags:                req.Tags,
			UserMarked:          req.UserMarked,
			ContradictionSignal: req.ContradictionSignal,
			Emotion:             req.Emotion,
			FutureRelevance:     req.FutureRelevance,
		},
		Slots: req.Slots,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	m, err := h.svc.GetMemory(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemoryHandler) TrustHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	entries, err := h.svc.TrustHistory(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type retrieveRequest struct {
	Embedding []float32 `json:"embedding"`
	TopK      int       `json:"top_k,omitempty"`
	MinTrust  float64   `json:"min_trust,omitempty"`
}

func (h *MemoryHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := h.svc.Retrieve(r.Context(), req.Embedding, req.TopK, req.MinTrust)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
