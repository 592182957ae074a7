package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "unitime"

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	conflicts       *prometheus.CounterVec
	sessionWrites   *prometheus.CounterVec
	conflictChecks  prometheus.Histogram
	lockWaitTimeout prometheus.Counter
}

// New registers all collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduling_conflicts_total",
			Help:      "Rejected or reported scheduling conflicts by kind.",
		}, []string{"kind"}),
		sessionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_writes_total",
			Help:      "Committed session writes by operation.",
		}, []string{"operation"}),
		conflictChecks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conflict_check_duration_seconds",
			Help:      "Time spent running the three conflict scans.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		lockWaitTimeout: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_lock_timeouts_total",
			Help:      "Writes that gave up waiting for a room or teacher lock.",
		}),
	}

	reg.MustRegister(m.httpRequests, m.httpDuration, m.conflicts, m.sessionWrites, m.conflictChecks, m.lockWaitTimeout)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return gin.WrapH(h)
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// ConflictDetected counts one conflict of each given kind.
func (m *Metrics) ConflictDetected(kinds ...string) {
	for _, kind := range kinds {
		m.conflicts.WithLabelValues(kind).Inc()
	}
}

// SessionWritten counts a committed create, update, status change or cancel.
func (m *Metrics) SessionWritten(operation string) {
	m.sessionWrites.WithLabelValues(operation).Inc()
}

// ObserveConflictCheck records the duration of one conflict check.
func (m *Metrics) ObserveConflictCheck(d time.Duration) {
	m.conflictChecks.Observe(d.Seconds())
}

// LockTimeout counts a write that hit the lock timeout.
func (m *Metrics) LockTimeout() {
	m.lockWaitTimeout.Inc()
}
