package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка по пайплайнам
	RequestDuration *prometheus.HistogramVec

	// Traffic: телеметрия по вердиктам
	TelemetryTotal *prometheus.CounterVec

	// Попытки доступа по исходам
	AccessTotal *prometheus.CounterVec

	// Сколько раз классификатор уходил в консервативный fallback
	ClassifierFallbacks prometheus.Counter

	// Ошибки доставки тревог (best-effort канал)
	AlertFailures prometheus.Counter

	// Saturation: заполненность буфера журнала (backpressure)
	JournalBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_request_duration_seconds",
			Help:    "Histogram of pipeline latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"pipeline", "status"}),

		TelemetryTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_telemetry_total",
			Help: "Total number of classified telemetry records.",
		}, []string{"label", "subtype"}),

		AccessTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_access_attempts_total",
			Help: "Total number of file access attempts by outcome.",
		}, []string{"outcome"}),

		ClassifierFallbacks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "sentinel_classifier_fallbacks_total",
			Help: "Times the conservative classification fallback fired.",
		}),

		AlertFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "sentinel_alert_failures_total",
			Help: "Alert deliveries that failed (best-effort channel).",
		}),

		JournalBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_journal_buffer_utilization",
			Help: "Current number of entries in the journal buffer.",
		}),
	}
}
