package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "promptcam"

// Cycle outcome label values.
const (
	OutcomeAnnotated   = "annotated"
	OutcomePassthrough = "passthrough"
	OutcomeFailed      = "failed"
	OutcomePanic       = "panic"
)

// Metrics exposes pipeline counters on a prometheus registry. A nil *Metrics
// records nothing.
type Metrics struct {
	cycles       *prometheus.CounterVec
	inferLatency prometheus.Histogram
	workerState  prometheus.Gauge
}

// NewMetrics registers pipeline metrics on reg. The queue counters are read
// lazily from q when gathered.
func NewMetrics(reg prometheus.Registerer, q *FrameQueue) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "worker",
			Name:      "cycles_total",
			Help:      "Inference worker cycles by outcome.",
		}, []string{"outcome"}),
		inferLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "worker",
			Name:      "infer_seconds",
			Help:      "Latency of recognition calls.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		workerState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "worker",
			Name:      "state",
			Help:      "Current worker state (0 idle, 1 waiting, 2 invoking, 3 publishing, 4 unavailable).",
		}),
	}
	if q != nil {
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "queue",
			Name:      "pushed_total",
			Help:      "Frames pushed into the inference queue.",
		}, func() float64 { return float64(q.Pushed()) })
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "queue",
			Name:      "dropped_total",
			Help:      "Frames evicted from the inference queue before being processed.",
		}, func() float64 { return float64(q.Dropped()) })
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "queue",
			Name:      "length",
			Help:      "Frames currently queued.",
		}, func() float64 { return float64(q.Len()) })
	}
	return m
}

func (m *Metrics) observeCycle(outcome string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeInfer(d time.Duration) {
	if m == nil {
		return
	}
	m.inferLatency.Observe(d.Seconds())
}

func (m *Metrics) setState(s WorkerState) {
	if m == nil {
		return
	}
	m.workerState.Set(float64(s))
}
