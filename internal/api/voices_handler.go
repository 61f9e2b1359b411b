package api

import (
	"net/http"

	"github.com/audiobound/audiobound/internal/voice"
)

// VoicesHandler serves the voice catalog available to conversion jobs.
type VoicesHandler struct {
	catalog []voice.Meta
}

// NewVoicesHandler creates a new voices handler backed by catalog.
func NewVoicesHandler(catalog []voice.Meta) *VoicesHandler {
	return &VoicesHandler{catalog: catalog}
}

// ListVoices handles GET /api/v1/voices, optionally filtered to the IDs
// enabled on a given book via ?enabled=id1,id2.
func (h *VoicesHandler) ListVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	voices := h.catalog
	if enabled := r.URL.Query()["enabled"]; len(enabled) > 0 {
		voices = voice.ResolveEnabled(h.catalog, enabled)
	}

	respondJSON(w, map[string]interface{}{
		"voices": voices,
		"count":  len(voices),
	}, http.StatusOK)
}
