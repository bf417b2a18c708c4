package domain

import "time"

// DashboardStats — агрегаты для админ-дашборда за скользящее окно.
type DashboardStats struct {
	Window            string           `json:"window"` // например "24h"
	TotalEvents       int64            `json:"total_events"`
	TotalAttacks      int64            `json:"total_attacks"`
	EventsBySubtype   map[string]int64 `json:"events_by_subtype"`
	TotalAttempts     int64            `json:"total_attempts"`
	AttemptsByOutcome map[string]int64 `json:"attempts_by_outcome"`
	WatchedSources    []string         `json:"watched_sources"`
	GeneratedAt       time.Time        `json:"generated_at"`
}
