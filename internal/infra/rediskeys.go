package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "sentinel"
)

// Ключи для Sets (состояние)
const (
	// RedisKeyWatchedSources — множество source identity с зафиксированными атаками.
	RedisKeyWatchedSources  = RedisNamespace + ":sources:watch_set"
	RedisKeyLockWatchWarmup = RedisNamespace + ":lock:warmup:watch"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanAlerts — канал, в который уходят структурированные тревоги
	// (внешний notification-сервис подписан на него).
	RedisChanAlerts = RedisNamespace + ":alerts:security-signal"

	// RedisChanWatchlist — сигналы изменения watchlist между инстансами шлюза.
	RedisChanWatchlist = RedisNamespace + ":sources:watch-signal"
)

// GetWarmupLockKey Генератор ключей для блокировок (если нужны динамические)
func GetWarmupLockKey(resource string) string {
	return fmt.Sprintf("%s:lock:warmup:%s", RedisNamespace, resource)
}
