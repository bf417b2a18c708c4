package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/sentinel-secops/internal/audit"
	"github.com/xela07ax/sentinel-secops/internal/classifier"
	"github.com/xela07ax/sentinel-secops/internal/domain"
	"github.com/xela07ax/sentinel-secops/internal/policy"
	"github.com/xela07ax/sentinel-secops/internal/vault"
)

// ErrAccessDenied — политика отклонила запрос. Наружу уходит 403,
// детали остаются в журнале попыток.
var ErrAccessDenied = errors.New("access denied")

// AssetStore — метаданные ассетов (Postgres в проде).
type AssetStore interface {
	InsertAsset(ctx context.Context, a domain.EncryptedAsset) error
	MarkEncrypted(ctx context.Context, id, ciphertextPath string) error
	GetAsset(ctx context.Context, id string) (*domain.EncryptedAsset, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.EncryptedAsset, error)
}

// BlobProvider — физическое хранилище шифротекста.
type BlobProvider interface {
	Save(assetID string, ciphertext []byte) (string, error)
	Load(path string) ([]byte, error)
}

// Watchlist — отметка источников атак; ядру нужна только запись.
type Watchlist interface {
	Mark(ctx context.Context, sourceID string)
}

// AlertSink — best-effort канал тревог.
type AlertSink interface {
	Notify(ctx context.Context, payload domain.AlertPayload) error
}

// Core — оркестратор двух пайплайнов: прием телеметрии и доступ к
// зашифрованным файлам. Вся последовательность шагов (классификация,
// политика, аудит, тревоги) живет здесь; HTTP-слой только парсит и
// форматирует.
type Core struct {
	classifier *classifier.Classifier
	enforcer   policy.Enforcer
	vault      *vault.Vault
	blobs      BlobProvider
	assets     AssetStore
	trail      *audit.Trail
	journal    *audit.Journal
	alerts     AlertSink
	watchlist  Watchlist
	metrics    *Metrics
	logger     *zap.Logger

	// Монотонные метки времени событий: даже при откате системных
	// часов порядок Event'ов в аудите не нарушается.
	clockMu sync.Mutex
	lastTS  time.Time
}

func NewCore(
	cls *classifier.Classifier,
	enforcer policy.Enforcer,
	v *vault.Vault,
	blobs BlobProvider,
	assets AssetStore,
	trail *audit.Trail,
	journal *audit.Journal,
	alerts AlertSink,
	watchlist Watchlist,
	metrics *Metrics,
	logger *zap.Logger,
) *Core {
	return &Core{
		classifier: cls,
		enforcer:   enforcer,
		vault:      v,
		blobs:      blobs,
		assets:     assets,
		trail:      trail,
		journal:    journal,
		alerts:     alerts,
		watchlist:  watchlist,
		metrics:    metrics,
		logger:     logger.Named("core"),
	}
}

func (c *Core) now() time.Time {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()
	ts := time.Now().UTC()
	if !ts.After(c.lastTS) {
		ts = c.lastTS.Add(time.Nanosecond)
	}
	c.lastTS = ts
	return ts
}

// SubmitTelemetry прогоняет запись через классификатор и фиксирует
// результат. Запись аудита обязательна: если она не легла — событие
// не считается принятым. Тревога и watchlist, наоборот, best-effort
// и на исход запроса не влияют.
func (c *Core) SubmitTelemetry(ctx context.Context, rec domain.TelemetryRecord) (domain.Event, error) {
	rec = classifier.Sanitize(rec)
	res := c.classifier.Classify(rec)

	e := domain.NewEvent(uuid.NewString(), c.now(), rec, res.ClassificationResult, res.FallbackUsed)

	if err := c.trail.RecordEvent(ctx, e); err != nil {
		return domain.Event{}, err
	}

	c.metrics.TelemetryTotal.WithLabelValues(string(e.Label), e.Subtype).Inc()

	traceID := extractTraceID(ctx)

	if res.FallbackUsed {
		c.metrics.ClassifierFallbacks.Inc()
		c.journal.Log(audit.JournalEntry{
			ID:             uuid.NewString(),
			TraceID:        traceID,
			Kind:           audit.JournalClassifierFallback,
			SourceIdentity: e.SourceIdentity,
			Detail:         map[string]interface{}{"event_id": e.ID},
		})
	}

	if e.Label == domain.LabelAttack {
		if err := c.alerts.Notify(ctx, domain.IntrusionAlert(traceID, e)); err != nil {
			c.metrics.AlertFailures.Inc()
			c.journal.Log(audit.JournalEntry{
				ID:             uuid.NewString(),
				TraceID:        traceID,
				Kind:           audit.JournalAlertFailure,
				SourceIdentity: e.SourceIdentity,
				Detail:         map[string]interface{}{"event_id": e.ID, "error": err.Error()},
			})
		}

		c.watchlist.Mark(ctx, e.SourceIdentity)
		c.journal.Log(audit.JournalEntry{
			ID:             uuid.NewString(),
			TraceID:        traceID,
			Kind:           audit.JournalWatchlistMark,
			SourceIdentity: e.SourceIdentity,
			Detail:         map[string]interface{}{"subtype": e.Subtype},
		})
	}

	return e, nil
}

// IngestFile шифрует и сохраняет файл. Плейнтекст затирается сразу
// после шифрования. Метаданные создаются до записи blob'а, поэтому
// флаг is_encrypted переключается только после того, как шифротекст
// durably лег на диск.
func (c *Core) IngestFile(ctx context.Context, owner, fileName string, plaintext []byte) (domain.EncryptedAsset, error) {
	if owner == "" {
		return domain.EncryptedAsset{}, fmt.Errorf("ingest: missing owner identity")
	}

	ciphertext, err := c.vault.Encrypt(plaintext)
	vault.Zero(plaintext)
	if err != nil {
		return domain.EncryptedAsset{}, fmt.Errorf("ingest: %w", err)
	}

	asset := domain.EncryptedAsset{
		ID:            uuid.NewString(),
		OwnerIdentity: owner,
		FileName:      fileName,
		CreatedAt:     c.now(),
	}
	if err := c.assets.InsertAsset(ctx, asset); err != nil {
		return domain.EncryptedAsset{}, fmt.Errorf("ingest: %w", err)
	}

	path, err := c.blobs.Save(asset.ID, ciphertext)
	if err != nil {
		return domain.EncryptedAsset{}, fmt.Errorf("ingest: %w", err)
	}

	if err := c.assets.MarkEncrypted(ctx, asset.ID, path); err != nil {
		return domain.EncryptedAsset{}, fmt.Errorf("ingest: %w", err)
	}

	asset.CiphertextPath = path
	asset.IsEncrypted = true
	return asset, nil
}

// ListFiles — файлы владельца, от новых к старым.
func (c *Core) ListFiles(ctx context.Context, owner string) ([]domain.EncryptedAsset, error) {
	return c.assets.ListByOwner(ctx, owner)
}

// RequestFile — точка принятия решения о доступе. Порядок жесткий:
// сначала политика, и только при Allow ядро прикасается к шифротексту.
// Каждый терминальный исход оставляет ровно одну запись в журнале
// попыток; без записи успешного исхода плейнтекст наружу не уходит.
func (c *Core) RequestFile(ctx context.Context, assetID, requester, sourceIP string) ([]byte, string, error) {
	// Идентификатор из URL проверяем на границе: мусорная строка — это
	// обычный NotFound, до хранилища она дойти не должна.
	if _, err := uuid.Parse(assetID); err != nil {
		if aerr := c.record(ctx, assetID, requester, sourceIP, domain.OutcomeNotFound, "malformed asset id", false); aerr != nil {
			return nil, "", aerr
		}
		return nil, "", domain.ErrAssetNotFound
	}

	asset, err := c.assets.GetAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			// Несуществующий ассет — не нарушение, тревоги нет
			if aerr := c.record(ctx, assetID, requester, sourceIP, domain.OutcomeNotFound, "asset not found", false); aerr != nil {
				return nil, "", aerr
			}
			return nil, "", domain.ErrAssetNotFound
		}
		if aerr := c.record(ctx, assetID, requester, sourceIP, domain.OutcomeInternalError, "asset lookup failed", true); aerr != nil {
			return nil, "", aerr
		}
		return nil, "", fmt.Errorf("request file: %w", err)
	}

	decision := c.enforcer.Authorize(requester, asset)
	if !decision.Allowed {
		if aerr := c.record(ctx, assetID, requester, sourceIP, domain.OutcomeUnauthorized, decision.Reason, true); aerr != nil {
			return nil, "", aerr
		}
		return nil, "", ErrAccessDenied
	}

	ciphertext, err := c.blobs.Load(asset.CiphertextPath)
	if err != nil {
		if errors.Is(err, vault.ErrBlobMissing) {
			if aerr := c.record(ctx, assetID, requester, sourceIP, domain.OutcomeNotFound, "ciphertext missing", false); aerr != nil {
				return nil, "", aerr
			}
			return nil, "", domain.ErrAssetNotFound
		}
		if aerr := c.record(ctx, assetID, requester, sourceIP, domain.OutcomeInternalError, "blob read failed", true); aerr != nil {
			return nil, "", aerr
		}
		return nil, "", fmt.Errorf("request file: %w", err)
	}

	plaintext, err := c.vault.Decrypt(ciphertext)
	if err != nil {
		if aerr := c.record(ctx, assetID, requester, sourceIP, domain.OutcomeInternalError, "decryption failed", true); aerr != nil {
			return nil, "", aerr
		}
		return nil, "", fmt.Errorf("request file: %w", err)
	}

	if aerr := c.record(ctx, assetID, requester, sourceIP, domain.OutcomeSuccess, "", false); aerr != nil {
		vault.Zero(plaintext)
		return nil, "", aerr
	}

	return plaintext, asset.FileName, nil
}

// record пишет одну запись попытки (фатальна при провале) и при
// необходимости отправляет тревогу нарушения доступа.
func (c *Core) record(ctx context.Context, assetID, requester, sourceIP string, outcome domain.AccessOutcome, reason string, alert bool) error {
	a := domain.AccessAttempt{
		ID:                uuid.NewString(),
		RequesterIdentity: requester,
		TargetAssetID:     assetID,
		SourceIP:          sourceIP,
		Outcome:           outcome,
		Reason:            reason,
		Timestamp:         c.now(),
	}

	if err := c.trail.RecordAttempt(ctx, a); err != nil {
		return err
	}
	c.metrics.AccessTotal.WithLabelValues(string(outcome)).Inc()

	if alert {
		traceID := extractTraceID(ctx)
		if err := c.alerts.Notify(ctx, domain.AccessAlert(traceID, a)); err != nil {
			c.metrics.AlertFailures.Inc()
			c.journal.Log(audit.JournalEntry{
				ID:             uuid.NewString(),
				TraceID:        traceID,
				Kind:           audit.JournalAlertFailure,
				SourceIdentity: requester,
				Detail:         map[string]interface{}{"asset_id": assetID, "error": err.Error()},
			})
		}
	}
	return nil
}
