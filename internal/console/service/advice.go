package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

type EventProvider interface {
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
}

// Advisor — внешний сервис рекомендаций по реагированию.
// Сюда подставляется gRPC-клиент, завернутый в reliability-обертку.
type Advisor interface {
	Advise(ctx context.Context, e domain.Event) (string, error)
}

// AdviceService отдает оператору рекомендацию по конкретному событию.
// Совет — справочный текст, на пайплайн доступа он не влияет.
type AdviceService struct {
	events  EventProvider
	advisor Advisor
}

func NewAdviceService(events EventProvider, advisor Advisor) *AdviceService {
	return &AdviceService{
		events:  events,
		advisor: advisor,
	}
}

type AdviceResponse struct {
	EventID  string `json:"event_id"`
	Subtype  string `json:"subtype"`
	Advice   string `json:"advice"`
	Degraded bool   `json:"degraded,omitempty"`
}

// AdviseOnEvent: отсутствующее событие — ошибка; недоступный советник —
// деградированный ответ (событие-то хранится нормально).
func (s *AdviceService) AdviseOnEvent(ctx context.Context, eventID string) (*AdviceResponse, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("advice_service: %w", err)
	}

	resp := &AdviceResponse{
		EventID: event.ID,
		Subtype: event.Subtype,
	}

	text, err := s.advisor.Advise(ctx, *event)
	if err != nil {
		resp.Advice = "Advisory service is unavailable. Follow the standard incident runbook for this subtype."
		resp.Degraded = true
		return resp, nil
	}

	resp.Advice = text
	return resp, nil
}
