package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart store activity.
type CartMetrics struct {
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	liveStores prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_operation_duration_seconds",
		Help:    "Duration of cart mutations including the persistence write.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	liveStores := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_live_stores",
		Help: "Number of shopper cart stores held in memory.",
	})
	reg.MustRegister(duration, operations, liveStores)
	return &CartMetrics{
		duration:   duration,
		operations: operations,
		liveStores: liveStores,
	}
}

// ObserveOperation records one cart mutation.
func (m *CartMetrics) ObserveOperation(op, result string, duration time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	op = normalizeLabel(op)
	m.operations.WithLabelValues(op, normalizeLabel(result)).Inc()
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetLiveStores publishes the number of in-memory cart stores.
func (m *CartMetrics) SetLiveStores(n int) {
	if m == nil || m.liveStores == nil {
		return
	}
	m.liveStores.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
