package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/credence-ai/credence/internal/service"
	"github.com/go-chi/chi/v5"
)

type DisclosureHandler struct {
	svc *service.DisclosureService
}

func NewDisclosureHandler(svc *service.DisclosureService) *DisclosureHandler {
	return &DisclosureHandler{svc: svc}
}

type disclosureRequest struct {
	SessionKey string  `json:"session_key"`
	PValid     float64 `json:"p_valid"`
	Slot       string  `json:"slot"`
	OldValue   string  `json:"old_value,omitempty"`
	NewValue   string  `json:"new_value,omitempty"`
}

func (h *DisclosureHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req disclosureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionKey == "" || req.Slot == "" {
		writeError(w, http.StatusBadRequest, "session_key and slot are required")
		return
	}

	decision := h.svc.Decide(req.SessionKey, req.PValid, req.Slot, req.OldValue, req.NewValue)
	writeJSON(w, http.StatusOK, decision)
}

func (h *DisclosureHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "session key is required")
		return
	}
	h.svc.EndSession(key)
	w.WriteHeader(http.StatusNoContent)
}
