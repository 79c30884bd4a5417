package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	StoreOps      *prometheus.CounterVec
	StoreLatency  *prometheus.HistogramVec
	HTTPRequests  *prometheus.CounterVec
	HTTPLatency   *prometheus.HistogramVec
	RateLimitHits prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "absensi_store_operations_total",
			Help: "Tabular store calls by table, operation and outcome.",
		}, []string{"table", "op", "outcome"}),
		StoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "absensi_store_operation_seconds",
			Help:    "Round-trip latency of tabular store calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"table", "op"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "absensi_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "absensi_http_request_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "absensi_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.StoreOps, m.StoreLatency, m.HTTPRequests, m.HTTPLatency, m.RateLimitHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveStore records one store call.
func (m *Metrics) ObserveStore(table, op string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StoreOps.WithLabelValues(table, op, outcome).Inc()
	m.StoreLatency.WithLabelValues(table, op).Observe(time.Since(started).Seconds())
}

// Middleware counts requests by matched route, not raw path, to keep label
// cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
