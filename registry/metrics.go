package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request results recorded by Metrics.
const (
	resultAccepted     = "accepted"
	resultRejected     = "rejected"
	resultUnknownChain = "unknown_chain"
	resultInvalidText  = "invalid_text"
)

// Metrics holds the registry's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	chainsActive   prometheus.Gauge
	chainsAdded    prometheus.Counter
	chainsRejected prometheus.Counter
	chainsRemoved  prometheus.Counter
	requests       *prometheus.CounterVec
	responses      prometheus.Counter
	streamsEnded   prometheus.Counter
	pollWaiters    prometheus.Gauge
	pollWait       prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil. Registration failures panic, as with prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		chainsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "chains_active",
			Help:      "Chains currently registered.",
		}),
		chainsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "chains_added_total",
			Help:      "Chains successfully added.",
		}),
		chainsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "chains_rejected_total",
			Help:      "Chain additions refused by the engine.",
		}),
		chainsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "chains_removed_total",
			Help:      "Chains removed.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jsonrpc",
			Name:      "requests_total",
			Help:      "JSON-RPC requests submitted, by result.",
		}, []string{"result"}),
		responses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jsonrpc",
			Name:      "responses_delivered_total",
			Help:      "JSON-RPC responses handed to pollers.",
		}),
		streamsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jsonrpc",
			Name:      "streams_ended_total",
			Help:      "Polls that observed the end of a response stream.",
		}),
		pollWaiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jsonrpc",
			Name:      "poll_waiters",
			Help:      "Callers blocked waiting for a response.",
		}),
		pollWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jsonrpc",
			Name:      "poll_wait_seconds",
			Help:      "Time spent waiting for a response.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.chainsActive, m.chainsAdded, m.chainsRejected, m.chainsRemoved,
			m.requests, m.responses, m.streamsEnded, m.pollWaiters, m.pollWait)
	}
	return m
}

func (m *Metrics) chainAdded() {
	if m == nil {
		return
	}
	m.chainsAdded.Inc()
	m.chainsActive.Inc()
}

func (m *Metrics) chainRejected() {
	if m == nil {
		return
	}
	m.chainsRejected.Inc()
}

func (m *Metrics) chainRemoved() {
	if m == nil {
		return
	}
	m.chainsRemoved.Inc()
	m.chainsActive.Dec()
}

func (m *Metrics) request(result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
}

// pollStarted marks a waiter and returns the function recording its outcome.
func (m *Metrics) pollStarted() func(ok bool, err error) {
	if m == nil {
		return func(bool, error) {}
	}
	m.pollWaiters.Inc()
	start := time.Now()
	return func(ok bool, err error) {
		m.pollWaiters.Dec()
		m.pollWait.Observe(time.Since(start).Seconds())
		switch {
		case err != nil:
		case ok:
			m.responses.Inc()
		default:
			m.streamsEnded.Inc()
		}
	}
}
