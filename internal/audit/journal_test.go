package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureStorage struct {
	mu      sync.Mutex
	batches [][]JournalEntry
}

func (s *captureStorage) WriteBatch(ctx context.Context, entries []JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]JournalEntry, len(entries))
	copy(cp, entries)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *captureStorage) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestJournal_FlushesBySize(t *testing.T) {
	storage := &captureStorage{}
	j := NewJournal(storage, 100, 5, time.Hour, zap.NewNop())
	j.Start()

	for i := 0; i < 5; i++ {
		j.Log(JournalEntry{Kind: JournalClassifierFallback})
	}

	// Батч уходит при достижении лимита, не дожидаясь тикера
	require.Eventually(t, func() bool { return storage.total() == 5 },
		2*time.Second, 10*time.Millisecond)

	j.Stop()
}

func TestJournal_DrainOnStop(t *testing.T) {
	storage := &captureStorage{}
	j := NewJournal(storage, 100, 50, time.Hour, zap.NewNop())
	j.Start()

	for i := 0; i < 7; i++ {
		j.Log(JournalEntry{Kind: JournalAlertFailure})
	}
	j.Stop() // Final Flush обязан дописать неполный батч

	assert.Equal(t, 7, storage.total())
}

func TestJournal_DropsAfterStop(t *testing.T) {
	storage := &captureStorage{}
	j := NewJournal(storage, 100, 50, time.Hour, zap.NewNop())
	j.Start()
	j.Stop()

	// Не должно паниковать и не должно ничего записать
	j.Log(JournalEntry{Kind: JournalWatchlistMark})
	assert.Equal(t, 0, storage.total())
}

func TestJournal_ConcurrentLogDuringStop(t *testing.T) {
	storage := &captureStorage{}
	j := NewJournal(storage, 10000, 50, time.Hour, zap.NewNop())
	j.Start()

	// Писатели молотят в журнал, пока Stop закрывает канал.
	// Любая паника здесь завалит тест.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				j.Log(JournalEntry{Kind: JournalWatchlistMark})
			}
		}()
	}

	j.Stop()
	wg.Wait()

	// Принятые до закрытия записи дописаны, лишних нет
	assert.LessOrEqual(t, storage.total(), 8*500)
}

func TestJournal_StampsTimestamp(t *testing.T) {
	storage := &captureStorage{}
	j := NewJournal(storage, 100, 1, time.Hour, zap.NewNop())
	j.Start()

	j.Log(JournalEntry{Kind: JournalWatchlistMark})
	require.Eventually(t, func() bool { return storage.total() == 1 },
		2*time.Second, 10*time.Millisecond)
	j.Stop()

	assert.False(t, storage.batches[0][0].Timestamp.IsZero())
}
