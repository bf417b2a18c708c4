package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/sentinel-secops/internal/infra"
)

// WatchlistManager ведет множество source identity, от которых
// зафиксированы атаки. Это триажный инструмент оператора: попадание в
// watchlist НЕ меняет правило доступа к файлам (оно всегда owner-only)
// и не блокирует телеметрию — источник просто под наблюдением.
//
// L1 — локальная мапа (hot path без сети), L2 — Redis set, общий для
// всех инстансов шлюза; синхронизация через Pub/Sub сигналы. Источник
// истины для прогрева — Постгрес (источники недавних атак).
type WatchlistManager struct {
	mu      sync.RWMutex
	watched map[string]struct{}
	rdb     *redis.Client
	seed    SeedSource
	logger  *zap.Logger
}

// SeedSource отдает авторитетный список источников для прогрева
// (реализуется репозиторием событий).
type SeedSource interface {
	DistinctAttackSources(ctx context.Context) ([]string, error)
}

func NewWatchlistManager(rdb *redis.Client, seed SeedSource, logger *zap.Logger) *WatchlistManager {
	return &WatchlistManager{
		watched: make(map[string]struct{}),
		rdb:     rdb,
		seed:    seed,
		logger:  logger.Named("watchlist"),
	}
}

// Init загружает текущее состояние при старте сервиса
func (m *WatchlistManager) Init(ctx context.Context) error {
	sources, err := m.seed.DistinctAttackSources(ctx)
	if err != nil {
		return fmt.Errorf("watchlist: seed: %w", err)
	}

	if err := WarmupState(ctx, m.rdb, m.logger, sources,
		infra.RedisKeyWatchedSources, infra.RedisKeyLockWatchWarmup,
		func(ids []string) {
			m.mu.Lock()
			for _, id := range ids {
				m.watched[id] = struct{}{}
			}
			m.mu.Unlock()
		}); err != nil {
		return fmt.Errorf("watchlist: warmup: %w", err)
	}

	// Добираем отметки, сделанные другими инстансами до нашей подписки
	members, err := m.rdb.SMembers(ctx, infra.RedisKeyWatchedSources).Result()
	if err != nil {
		return fmt.Errorf("watchlist: init: %w", err)
	}
	m.mu.Lock()
	for _, id := range members {
		m.watched[id] = struct{}{}
	}
	m.mu.Unlock()
	return nil
}

// StartListener держит L1 в согласии с остальными инстансами.
func (m *WatchlistManager) StartListener(ctx context.Context) {
	ListenStateResilient(ctx, m.rdb, m.logger, infra.RedisChanWatchlist,
		func() error { return m.Init(ctx) },
		func(sourceID string, watched bool) {
			m.mu.Lock()
			if watched {
				m.watched[sourceID] = struct{}{}
			} else {
				delete(m.watched, sourceID)
			}
			m.mu.Unlock()
			m.logger.Info("watchlist signal applied",
				zap.String("source", sourceID), zap.Bool("watched", watched))
		})
}

// Mark ставит источник под наблюдение: L1 сразу, L2 + сигнал best-effort.
func (m *WatchlistManager) Mark(ctx context.Context, sourceID string) {
	if sourceID == "" {
		return
	}

	m.mu.Lock()
	m.watched[sourceID] = struct{}{}
	m.mu.Unlock()

	if err := m.rdb.SAdd(ctx, infra.RedisKeyWatchedSources, sourceID).Err(); err != nil {
		m.logger.Error("failed to persist watchlist mark", zap.Error(err))
		return
	}
	if err := m.rdb.Publish(ctx, infra.RedisChanWatchlist, sourceID+":on").Err(); err != nil {
		m.logger.Warn("failed to broadcast watchlist signal", zap.Error(err))
	}
}

// Clear снимает источник с наблюдения (операция консоли).
func (m *WatchlistManager) Clear(ctx context.Context, sourceID string) error {
	m.mu.Lock()
	delete(m.watched, sourceID)
	m.mu.Unlock()

	if err := m.rdb.SRem(ctx, infra.RedisKeyWatchedSources, sourceID).Err(); err != nil {
		return fmt.Errorf("watchlist: clear: %w", err)
	}
	return m.rdb.Publish(ctx, infra.RedisChanWatchlist, sourceID+":off").Err()
}

func (m *WatchlistManager) IsWatched(sourceID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.watched[sourceID]
	return ok
}

// List — снимок для консоли/дашборда.
func (m *WatchlistManager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.watched))
	for id := range m.watched {
		out = append(out, id)
	}
	return out
}
