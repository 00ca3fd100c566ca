package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/credence-ai/credence/internal/service"
)

type ReflectionHandler struct {
	svc *service.ReflectionService
}

func NewReflectionHandler(svc *service.ReflectionService) *ReflectionHandler {
	return &ReflectionHandler{svc: svc}
}

func (h *ReflectionHandler) Queue(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Queue(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queue": items})
}

func (h *ReflectionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window_seconds"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window_seconds")
			return
		}
		window = time.Duration(secs) * time.Second
	}

	stats, err := h.svc.Stats(r.Context(), window)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
