package restapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's request collectors in a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the client collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoctl_api_requests_total",
			Help: "Total number of API requests by operation and HTTP status (0 when no response).",
		}, []string{"operation", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todoctl_api_request_duration_seconds",
			Help:    "API request latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	m.Registry.MustRegister(m.requests, m.duration)
	return m
}

// WriteFile writes the current metrics to path in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) observe(op string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}
