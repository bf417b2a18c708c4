package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/xela07ax/sentinel-secops/internal/advisor"
	"github.com/xela07ax/sentinel-secops/internal/domain"
)

// ReliabilityWrapper изолирует ядро от капризов внешнего советника:
// Rate Limiter -> Circuit Breaker -> Retries. Советник — необязательный
// коллаборатор, и его деградация не должна съедать ресурсы пайплайна.
type ReliabilityWrapper struct {
	next    advisor.Provider
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// BreakerSettings — параметры предохранителя из конфига.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

func NewReliabilityWrapper(next advisor.Provider, bs BreakerSettings) *ReliabilityWrapper {
	if bs.MaxRequests == 0 {
		bs.MaxRequests = 3
	}
	if bs.Interval <= 0 {
		bs.Interval = 5 * time.Second
	}
	if bs.Timeout <= 0 {
		bs.Timeout = 30 * time.Second
	}

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "advisor",
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
	})

	// Советник — не hot path, лимит скромный
	limiter := rate.NewLimiter(rate.Limit(10), 5)

	return &ReliabilityWrapper{
		next:    next,
		cb:      cb,
		limiter: limiter,
	}
}

func (w *ReliabilityWrapper) Advise(ctx context.Context, e domain.Event) (string, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	var finalText string

	// 2. Circuit Breaker
	cbResult, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			// Умный расчет задержки
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Советник вернул ThrottleError (считал Retry-After)
				var tErr *advisor.ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}

				// В остальных случаях — стандартный экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			var callErr error
			finalText, callErr = w.next.Advise(tCtx, e)
			return callErr
		})

		return finalText, retryErr
	})

	if err != nil {
		return "", err
	}

	return cbResult.(string), nil
}
