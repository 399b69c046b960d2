package ingress

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the ingress counters. Each Server registers its own set on a
// private registry so several servers can coexist in one process (tests).
type Metrics struct {
	reg         *prometheus.Registry
	received    prometheus.Counter
	rejected    prometheus.Counter
	undelivered prometheus.Counter
	latency     prometheus.Histogram
}

func newMetrics(pending func() int) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "motion_samples_received_total",
			Help: "Samples parsed and handed to the dashboard channel.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "motion_samples_rejected_total",
			Help: "Requests to /motion rejected as malformed.",
		}),
		undelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "motion_samples_undelivered_total",
			Help: "Samples accepted while no dashboard was consuming them.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "motion_ingest_request_seconds",
			Help:    "Time spent handling a /motion request.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
	queueLen := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "motion_queue_length",
		Help: "Samples waiting for the next render tick.",
	}, func() float64 { return float64(pending()) })

	m.reg.MustRegister(m.received, m.rejected, m.undelivered, m.latency, queueLen)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Received is the number of samples accepted so far.
func (m *Metrics) Received() int64 { return counterValue(m.received) }

// Rejected is the number of malformed requests so far.
func (m *Metrics) Rejected() int64 { return counterValue(m.rejected) }

// Undelivered is the number of accepted samples no dashboard consumed.
func (m *Metrics) Undelivered() int64 { return counterValue(m.undelivered) }

func counterValue(c prometheus.Counter) int64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return int64(out.GetCounter().GetValue())
}
