package audit

/*
Файл journal.go реализует операционный журнал (Activity Journal) —
высокопроизводительный движок для сбора вторичной аналитики: сработки
fallback-классификации, провалы доставки тревог, изменения watchlist.

Это НЕ записи аудита as-of-record (те пишутся синхронно через Trail):
потеря журнальной записи неприятна, но не фатальна, поэтому здесь
можно позволить себе асинхронность.

Ключевые особенности архитектуры:
- Non-blocking Logging: неблокирующий канал между Hot Path и воркером,
  задержки базы не влияют на Response Time пайплайна.
- Batching & Efficiency: накопление в памяти и пакетная запись (Bulk
  Insert) в PostgreSQL по таймеру или при достижении лимита.
- Drain Pattern & Graceful Shutdown: полная вычитка буфера при остановке,
  Final Flush через закрытие канала + sync.WaitGroup.
*/

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JournalEntry — одна операционная запись.
type JournalEntry struct {
	ID             string                 `json:"id"` // UUID
	TraceID        string                 `json:"trace_id"`
	Kind           string                 `json:"kind"` // "classifier_fallback", "alert_failure", "watchlist_mark"
	SourceIdentity string                 `json:"source_identity"`
	Detail         map[string]interface{} `json:"detail"`
	Timestamp      time.Time              `json:"timestamp"`
}

// Журнальные kind'ы
const (
	JournalClassifierFallback = "classifier_fallback"
	JournalAlertFailure       = "alert_failure"
	JournalWatchlistMark      = "watchlist_mark"
)

// JournalStorage определяет, куда физически будут сохраняться записи
type JournalStorage interface {
	// WriteBatch сохраняет пачку записей за один раз
	WriteBatch(ctx context.Context, entries []JournalEntry) error
}

type Journal struct {
	ch     chan JournalEntry // Буфер для асинхронности
	repo   JournalStorage
	logger *zap.Logger
	wg     sync.WaitGroup

	batchSize     int
	flushInterval time.Duration

	// Защита от записи после остановки: Log шлет в канал под RLock,
	// Stop закрывает канал под Lock — отправка в закрытый канал исключена.
	closeMu sync.RWMutex
	closed  bool
}

func NewJournal(repo JournalStorage, bufferSize, batchSize int, flushInterval time.Duration, logger *zap.Logger) *Journal {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	return &Journal{
		ch:            make(chan JournalEntry, bufferSize),
		repo:          repo,
		logger:        logger.With(zap.String("mod", "journal")),
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// BufferFill — доля занятого буфера (0..1) для gauge-метрики saturation.
func (j *Journal) BufferFill() float64 {
	if cap(j.ch) == 0 {
		return 0
	}
	return float64(len(j.ch)) / float64(cap(j.ch))
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (j *Journal) Stop() {
	j.logger.Info("stopping journal: closing channel and flushing buffer...")

	// Эксклюзивная блокировка дожидается всех Log, которые уже
	// проскочили проверку флага, и только потом закрывает канал
	j.closeMu.Lock()
	j.closed = true
	close(j.ch)
	j.closeMu.Unlock()

	// Drain Pattern: воркер вычитывает остатки и завершается
	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *Journal) Log(entry JournalEntry) {
	// Убеждаемся, что таймстемп всегда проставлен
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// Проверка флага и отправка — под одной RLock, иначе Stop может
	// закрыть канал между ними
	j.closeMu.RLock()
	defer j.closeMu.RUnlock()
	if j.closed {
		j.logger.Warn("journal entry dropped: journal is stopping", zap.String("id", entry.ID))
		return
	}

	// Стратегия Load Shedding: переполнен буфер — запись уходит в лог,
	// а не блокирует пайплайн
	select {
	case j.ch <- entry:
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.String("kind", entry.Kind),
			zap.String("trace_id", entry.TraceID),
		)
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]JournalEntry, 0, j.batchSize)
	ticker := time.NewTicker(j.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст к этому моменту может быть закрыт
			if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
				j.logger.Error("journal flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case entry, ok := <-j.ch:
			if !ok {
				// Канал закрыт в Stop(): воркер сначала вычитал остатки,
				// теперь финальный сброс и выход
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, entry)
			if len(batch) >= j.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
