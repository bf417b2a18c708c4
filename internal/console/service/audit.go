package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/sentinel-secops/internal/audit"
	"github.com/xela07ax/sentinel-secops/internal/domain"
)

// EventLogProvider / AttemptLogProvider / JournalLogProvider — контракты
// чтения трех журналов. Модели данных общие с ядром, чтобы консоль
// показывала ровно то, что легло в аудит.
type EventLogProvider interface {
	ListEvents(ctx context.Context, subtype string, limit int) ([]domain.Event, error)
}

type AttemptLogProvider interface {
	ListAttempts(ctx context.Context, outcome domain.AccessOutcome, assetID string, limit int) ([]domain.AccessAttempt, error)
}

type JournalLogProvider interface {
	FetchRecent(ctx context.Context, kind string, limit int) ([]audit.JournalEntry, error)
}

type AuditService struct {
	events   EventLogProvider
	attempts AttemptLogProvider
	journal  JournalLogProvider
}

func NewAuditService(events EventLogProvider, attempts AttemptLogProvider, journal JournalLogProvider) *AuditService {
	return &AuditService{
		events:   events,
		attempts: attempts,
		journal:  journal,
	}
}

// FetchEvents — события телеметрии, от новых к старым.
// Пустой subtype = без фильтра.
func (s *AuditService) FetchEvents(ctx context.Context, subtype string, limit int) ([]domain.Event, error) {
	events, err := s.events.ListEvents(ctx, subtype, limit)
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to fetch events: %w", err)
	}
	return events, nil
}

// FetchAttempts — попытки доступа с фильтром по исходу и ассету.
func (s *AuditService) FetchAttempts(ctx context.Context, outcome domain.AccessOutcome, assetID string, limit int) ([]domain.AccessAttempt, error) {
	attempts, err := s.attempts.ListAttempts(ctx, outcome, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to fetch attempts: %w", err)
	}
	return attempts, nil
}

// FetchJournal — операционный журнал (fallback'и, потерянные тревоги).
func (s *AuditService) FetchJournal(ctx context.Context, kind string, limit int) ([]audit.JournalEntry, error) {
	entries, err := s.journal.FetchRecent(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to fetch journal: %w", err)
	}
	return entries, nil
}
