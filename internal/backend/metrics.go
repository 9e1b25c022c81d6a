package backend

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder observes backend calls.
type Recorder interface {
	RecordRequest(endpoint string, status int, elapsed time.Duration)
}

// Collector records backend calls as Prometheus metrics.
type Collector struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "merchantdash_backend_requests_total",
			Help: "Backend API calls by endpoint and HTTP status code (0 for transport failures).",
		}, []string{"endpoint", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "merchantdash_backend_request_seconds",
			Help:    "Backend API call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	reg.MustRegister(c.requests, c.latency)
	return c
}

// RecordRequest counts one call and observes its latency.
func (c *Collector) RecordRequest(endpoint string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, int, time.Duration) {}
