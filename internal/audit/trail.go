package audit

import (
	"context"
	"fmt"

	"github.com/xela07ax/sentinel-secops/internal/domain"
	"go.uber.org/zap"
)

// EventSink / AttemptSink — куда физически пишутся записи аудита
// (Postgres в проде, in-memory в тестах).
type EventSink interface {
	InsertEvent(ctx context.Context, e domain.Event) error
}

type AttemptSink interface {
	InsertAttempt(ctx context.Context, a domain.AccessAttempt) error
}

// Trail — append-only журнал решений. Записи синхронные и обязательные:
// операция, породившая запись, НЕ считается завершенной, пока запись
// durably не легла в хранилище. Провал записи — фатален для запроса
// (AuditWriteFailure), молчаливых потерь здесь не бывает.
// Update/Delete не существует по построению.
type Trail struct {
	events   EventSink
	attempts AttemptSink
	logger   *zap.Logger
}

func NewTrail(events EventSink, attempts AttemptSink, logger *zap.Logger) *Trail {
	return &Trail{
		events:   events,
		attempts: attempts,
		logger:   logger.Named("audit"),
	}
}

func (t *Trail) RecordEvent(ctx context.Context, e domain.Event) error {
	if err := t.events.InsertEvent(ctx, e); err != nil {
		t.logger.Error("event audit write failed",
			zap.String("event_id", e.ID), zap.Error(err))
		return fmt.Errorf("audit: event write: %w", err)
	}
	return nil
}

func (t *Trail) RecordAttempt(ctx context.Context, a domain.AccessAttempt) error {
	if err := t.attempts.InsertAttempt(ctx, a); err != nil {
		t.logger.Error("access attempt audit write failed",
			zap.String("attempt_id", a.ID),
			zap.String("asset_id", a.TargetAssetID),
			zap.Error(err))
		return fmt.Errorf("audit: attempt write: %w", err)
	}
	return nil
}
