package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/xela07ax/sentinel-secops/internal/console/service"
	"github.com/xela07ax/sentinel-secops/internal/domain"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(s *service.AuditService) *AuditHandler {
	return &AuditHandler{service: s}
}

// GetEvents — события телеметрии с фильтрацией
// GET /v1/audit/events?subtype=...&limit=...
func (h *AuditHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	subtype := r.URL.Query().Get("subtype")
	limit := parseLimit(r)

	events, err := h.service.FetchEvents(r.Context(), subtype, limit)
	if err != nil {
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// GetAttempts — журнал попыток доступа
// GET /v1/audit/attempts?outcome=...&asset_id=...&limit=...
func (h *AuditHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	outcome := domain.AccessOutcome(r.URL.Query().Get("outcome"))
	assetID := r.URL.Query().Get("asset_id")
	limit := parseLimit(r)

	attempts, err := h.service.FetchAttempts(r.Context(), outcome, assetID, limit)
	if err != nil {
		http.Error(w, "Failed to fetch access attempts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(attempts)
}

// GetJournal — операционный журнал ядра
// GET /v1/audit/journal?kind=...&limit=...
func (h *AuditHandler) GetJournal(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	limit := parseLimit(r)

	entries, err := h.service.FetchJournal(r.Context(), kind, limit)
	if err != nil {
		http.Error(w, "Failed to fetch journal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 100
	}
	return n
}
