// Package metrics provides Prometheus metrics for udp-relay.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "udp_relay"
)

// Direction label values for per-direction metrics.
const (
	DirectionAToB = "a_to_b"
	DirectionBToA = "b_to_a"
)

// Metrics contains all Prometheus metrics for the relay.
type Metrics struct {
	// Datapath metrics
	DatagramsForwarded *prometheus.CounterVec
	DatagramsDropped   *prometheus.CounterVec
	BytesForwarded     *prometheus.CounterVec

	// Dispatch loop metrics
	Wakeups        prometheus.Counter
	DrainBatchSize prometheus.Histogram
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the default metrics instance.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance with a custom registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		DatagramsForwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_forwarded_total",
			Help:      "Total datagrams forwarded by direction",
		}, []string{"direction"}),
		DatagramsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_dropped_total",
			Help:      "Total datagrams dropped on send failure by direction",
		}, []string{"direction"}),
		BytesForwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_forwarded_total",
			Help:      "Total payload bytes forwarded by direction",
		}, []string{"direction"}),

		Wakeups: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wakeups_total",
			Help:      "Total dispatch loop passes (readiness wakeups or poll iterations)",
		}),
		DrainBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_batch_size",
			Help:      "Histogram of datagrams moved per drain visit",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
	}

	return m
}

// RecordForward records one successfully forwarded datagram.
func (m *Metrics) RecordForward(direction string, bytes int) {
	m.DatagramsForwarded.WithLabelValues(direction).Inc()
	m.BytesForwarded.WithLabelValues(direction).Add(float64(bytes))
}

// RecordDrop records a datagram dropped on send failure.
func (m *Metrics) RecordDrop(direction string) {
	m.DatagramsDropped.WithLabelValues(direction).Inc()
}

// RecordWakeup records one pass of the dispatch loop.
func (m *Metrics) RecordWakeup() {
	m.Wakeups.Inc()
}

// RecordDrainBatch records how many datagrams a drain visit moved.
func (m *Metrics) RecordDrainBatch(count int) {
	m.DrainBatchSize.Observe(float64(count))
}
