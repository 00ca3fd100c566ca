package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ContradictionHandler struct {
	svc *service.LedgerService
}

func NewContradictionHandler(svc *service.LedgerService) *ContradictionHandler {
	return &ContradictionHandler{svc: svc}
}

// ListOpen returns unresolved entries, optionally scoped with ?slots=a,b.
func (h *ContradictionHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	var slots []string
	if raw := r.URL.Query().Get("slots"); raw != "" {
		slots = strings.Split(raw, ",")
	}

	entries, err := h.svc.OpenContradictions(r.Context(), slots)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contradictions": entries})
}

type resolveRequest struct {
	Decision string `json:"decision"`
	ChosenID string `json:"chosen_memory_id,omitempty"`
}

func (h *ContradictionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ledger id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidResolutionDecision(req.Decision) {
		writeError(w, http.StatusBadRequest, "invalid decision")
		return
	}

	var chosen *uuid.UUID
	if req.ChosenID != "" {
		cid, err := uuid.Parse(req.ChosenID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid chosen memory id")
			return
		}
		chosen = &cid
	}

	entry, err := h.svc.Resolve(r.Context(), id, domain.ResolutionDecision(req.Decision), chosen)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type confirmRequest struct {
	MemoryID        string    `json:"memory_id"`
	OutputEmbedding []float32 `json:"output_embedding,omitempty"`
}

func (h *ContradictionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ledger id")
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	memoryID, err := uuid.Parse(req.MemoryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid memory id")
		return
	}

	entry, err := h.svc.Confirm(r.Context(), id, memoryID, req.OutputEmbedding)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
