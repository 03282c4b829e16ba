package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pebblestore "github.com/rzbill/pushsub/internal/storage/pebble"
)

// Prometheus implements Collector with lazily registered Prometheus metrics.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	requests        *prometheus.CounterVec
	ids             *prometheus.CounterVec
	responses       *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
	stale           *prometheus.CounterVec

	storeWriteBytes prometheus.Counter
	storeReadBytes  prometheus.Counter
	storeCommit     prometheus.Histogram
}

var (
	_ Collector               = (*Prometheus)(nil)
	_ pebblestore.MetricsHook = (*Prometheus)(nil)
)

// NewPrometheus creates a collector registering on reg
// (prometheus.DefaultRegisterer if nil) under namespace ("pushsub" if empty).
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "pushsub"
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Push requests issued by provider and mode (live, dry_run).",
		}, []string{"provider", "mode"})
		p.ids = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "ids_total",
			Help:      "Subscriber ids covered by issued push requests.",
		}, []string{"provider"})
		p.responses = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "responses_total",
			Help:      "Provider responses by status class.",
		}, []string{"provider", "class"})
		p.transportErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "transport_errors_total",
			Help:      "Push requests that failed before a response was received.",
		}, []string{"provider"})
		p.stale = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "dispatch",
			Name:      "stale_total",
			Help:      "Subscriber ids reported invalid by the provider.",
		}, []string{"provider"})

		p.storeWriteBytes = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "write_bytes_total",
			Help:      "Bytes written by point writes.",
		})
		p.storeReadBytes = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "read_bytes_total",
			Help:      "Bytes read by point reads and range scans.",
		})
		p.storeCommit = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "commit_seconds",
			Help:      "Batch commit latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us .. ~0.8s
		})

		p.reg.MustRegister(
			p.requests, p.ids, p.responses, p.transportErrors, p.stale,
			p.storeWriteBytes, p.storeReadBytes, p.storeCommit,
		)
	})
}

func (p *Prometheus) RequestIssued(provider, mode string, ids int) {
	p.ensureRegistered()
	p.requests.WithLabelValues(provider, mode).Inc()
	p.ids.WithLabelValues(provider).Add(float64(ids))
}

func (p *Prometheus) ResponseReceived(provider string, status int) {
	p.ensureRegistered()
	p.responses.WithLabelValues(provider, StatusClass(status)).Inc()
}

func (p *Prometheus) TransportFailed(provider string) {
	p.ensureRegistered()
	p.transportErrors.WithLabelValues(provider).Inc()
}

func (p *Prometheus) StaleDetected(provider string, n int) {
	if n <= 0 {
		return
	}
	p.ensureRegistered()
	p.stale.WithLabelValues(provider).Add(float64(n))
}

func (p *Prometheus) ObserveWrite(_ time.Duration, bytes int) {
	p.ensureRegistered()
	p.storeWriteBytes.Add(float64(bytes))
}

func (p *Prometheus) ObserveRead(_ time.Duration, bytes int) {
	p.ensureRegistered()
	p.storeReadBytes.Add(float64(bytes))
}

func (p *Prometheus) ObserveBatchCommit(elapsed time.Duration, _ int, _ int) {
	p.ensureRegistered()
	p.storeCommit.Observe(elapsed.Seconds())
}
