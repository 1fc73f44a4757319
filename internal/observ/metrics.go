package observ

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one process. Collectors are
// registered on the registry passed to NewMetrics so tests can use a
// private registry.
type Metrics struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	gatherer  prometheus.Gatherer
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_mutations_total",
				Help: "CRM mutations by entity, operation and result",
			},
			[]string{"entity", "op", "result"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.durations, m.mutations)
	return m
}

// Middleware records request counts and latency. The path label is the
// route template (/v1/deals/:id), never the raw URL.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.durations.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// ObserveMutation counts one mutation attempt.
func (m *Metrics) ObserveMutation(entity, op, result string) {
	m.mutations.WithLabelValues(entity, op, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
