package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/sentinel-secops/internal/console/service"
)

type AdviceHandler struct {
	service *service.AdviceService
}

func NewAdviceHandler(s *service.AdviceService) *AdviceHandler {
	return &AdviceHandler{service: s}
}

// GetAdvice — GET /v1/events/{eventID}/advice
// Рекомендация по реагированию от внешнего advisor-сервиса.
func (h *AdviceHandler) GetAdvice(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		http.Error(w, "eventID is required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.AdviseOnEvent(r.Context(), eventID)
	if err != nil {
		// Сервис вернет деградированный ответ при недоступном советнике;
		// ошибка здесь означает, что само событие не нашлось
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
