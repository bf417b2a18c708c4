package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventStats struct{ counts map[string]int64 }

func (f fakeEventStats) CountBySubtype(context.Context, time.Duration) (map[string]int64, error) {
	return f.counts, nil
}

type fakeAttemptStats struct{ counts map[string]int64 }

func (f fakeAttemptStats) CountByOutcome(context.Context, time.Duration) (map[string]int64, error) {
	return f.counts, nil
}

type fakeWatchlist struct{ sources []string }

func (f fakeWatchlist) List() []string { return f.sources }

func TestGetStats_Aggregates(t *testing.T) {
	svc := NewDashboardService(
		fakeEventStats{counts: map[string]int64{
			"Normal":      40,
			"Brute Force": 7,
			"DDoS":        3,
		}},
		fakeAttemptStats{counts: map[string]int64{
			"SUCCESS":      12,
			"UNAUTHORIZED": 4,
		}},
		fakeWatchlist{sources: []string{"sensor-7"}},
		24*time.Hour,
	)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(50), stats.TotalEvents)
	assert.Equal(t, int64(10), stats.TotalAttacks, "Normal subtype is not an attack")
	assert.Equal(t, int64(16), stats.TotalAttempts)
	assert.Equal(t, []string{"sensor-7"}, stats.WatchedSources)
	assert.Equal(t, "24h0m0s", stats.Window)
	assert.False(t, stats.GeneratedAt.IsZero())
}

func TestGetStats_EmptyWindow(t *testing.T) {
	svc := NewDashboardService(
		fakeEventStats{counts: map[string]int64{}},
		fakeAttemptStats{counts: map[string]int64{}},
		fakeWatchlist{},
		0, // дефолтное окно
	)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalEvents)
	assert.Zero(t, stats.TotalAttacks)
	assert.Zero(t, stats.TotalAttempts)
	assert.Equal(t, "24h0m0s", stats.Window)
}
