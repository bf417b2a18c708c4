package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// WatchlistControl — операции оператора над списком наблюдения.
type WatchlistControl interface {
	List() []string
	Mark(ctx context.Context, sourceID string)
	Clear(ctx context.Context, sourceID string) error
}

type WatchlistHandler struct {
	watch WatchlistControl
}

func NewWatchlistHandler(w WatchlistControl) *WatchlistHandler {
	return &WatchlistHandler{watch: w}
}

// List — GET /v1/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	sources := h.watch.List()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	})
}

// Mark — POST /v1/watchlist/{sourceID}/mark (ручная постановка)
func (h *WatchlistHandler) Mark(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")
	if sourceID == "" {
		http.Error(w, "sourceID is required", http.StatusBadRequest)
		return
	}

	h.watch.Mark(r.Context(), sourceID)
	w.WriteHeader(http.StatusNoContent)
}

// Clear — POST /v1/watchlist/{sourceID}/clear (снятие с наблюдения)
func (h *WatchlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")
	if sourceID == "" {
		http.Error(w, "sourceID is required", http.StatusBadRequest)
		return
	}

	if err := h.watch.Clear(r.Context(), sourceID); err != nil {
		http.Error(w, "Failed to clear watchlist entry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
