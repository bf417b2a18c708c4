package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xela07ax/sentinel-secops/internal/classifier"
	"github.com/xela07ax/sentinel-secops/internal/domain"
)

type EventStatsProvider interface {
	CountBySubtype(ctx context.Context, window time.Duration) (map[string]int64, error)
}

type AttemptStatsProvider interface {
	CountByOutcome(ctx context.Context, window time.Duration) (map[string]int64, error)
}

// WatchlistView — снимок источников под наблюдением (L1 менеджера).
type WatchlistView interface {
	List() []string
}

type DashboardService struct {
	events   EventStatsProvider
	attempts AttemptStatsProvider
	watch    WatchlistView
	window   time.Duration
}

func NewDashboardService(events EventStatsProvider, attempts AttemptStatsProvider, watch WatchlistView, window time.Duration) *DashboardService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &DashboardService{
		events:   events,
		attempts: attempts,
		watch:    watch,
		window:   window,
	}
}

func (s *DashboardService) GetStats(ctx context.Context) (*domain.DashboardStats, error) {
	bySubtype, err := s.events.CountBySubtype(ctx, s.window)
	if err != nil {
		return nil, fmt.Errorf("dashboard: event stats: %w", err)
	}
	byOutcome, err := s.attempts.CountByOutcome(ctx, s.window)
	if err != nil {
		return nil, fmt.Errorf("dashboard: attempt stats: %w", err)
	}

	stats := &domain.DashboardStats{
		Window:            s.window.String(),
		EventsBySubtype:   bySubtype,
		AttemptsByOutcome: byOutcome,
		WatchedSources:    s.watch.List(),
		GeneratedAt:       time.Now().UTC(),
	}

	for subtype, n := range bySubtype {
		stats.TotalEvents += n
		if subtype != classifier.SubtypeNormal {
			stats.TotalAttacks += n
		}
	}
	for _, n := range byOutcome {
		stats.TotalAttempts += n
	}

	return stats, nil
}
