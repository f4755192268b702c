package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewRegistry returns the registry served on /metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func constLabels(cfg Config) prometheus.Labels {
	service := strings.TrimSpace(cfg.ServiceName)
	if service == "" {
		service = "nel3"
	}
	env := strings.TrimSpace(cfg.Environment)
	if env == "" {
		env = "unknown"
	}
	return prometheus.Labels{"service": service, "env": env}
}

// StoreMetrics tracks Entity Store persistence.
type StoreMetrics struct {
	snapshotWrites   *prometheus.CounterVec
	snapshotDuration *prometheus.HistogramVec
	snapshotBytes    prometheus.Gauge
	commands         *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer, cfg Config) *StoreMetrics {
	factory := promauto.With(reg)
	labels := constLabels(cfg)
	return &StoreMetrics{
		snapshotWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "nel3_store_snapshot_writes_total",
			Help:        "Snapshot writes by backend and outcome.",
			ConstLabels: labels,
		}, []string{"backend", "outcome"}),
		snapshotDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "nel3_store_snapshot_write_seconds",
			Help:        "Snapshot write latency by backend.",
			Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			ConstLabels: labels,
		}, []string{"backend"}),
		snapshotBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "nel3_store_snapshot_bytes",
			Help:        "Size of the last persisted snapshot after compression.",
			ConstLabels: labels,
		}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "nel3_store_commands_total",
			Help:        "Store commands by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
	}
}

func (m *StoreMetrics) ObserveSnapshotWrite(backend string, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.snapshotWrites.WithLabelValues(backend, outcome).Inc()
	m.snapshotDuration.WithLabelValues(backend).Observe(seconds)
}

func (m *StoreMetrics) SetSnapshotBytes(n int) {
	if m == nil {
		return
	}
	m.snapshotBytes.Set(float64(n))
}

// ObserveCommand counts a finished Update by outcome: ok, rejected (domain error) or failed.
func (m *StoreMetrics) ObserveCommand(outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(outcome).Inc()
}

// HTTPMetrics tracks the command/query API.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer, cfg Config) *HTTPMetrics {
	factory := promauto.With(reg)
	labels := constLabels(cfg)
	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "nel3_http_requests_total",
			Help:        "HTTP requests by route and status class.",
			ConstLabels: labels,
		}, []string{"method", "route", "status_class"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "nel3_http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "route"}),
	}
}

func (m *HTTPMetrics) Observe(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(seconds)
}

// GinMiddleware records every request against its matched route.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.Observe(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// SchedulerMetrics tracks background jobs.
type SchedulerMetrics struct {
	runs     *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewSchedulerMetrics(reg prometheus.Registerer, cfg Config) *SchedulerMetrics {
	factory := promauto.With(reg)
	labels := constLabels(cfg)
	return &SchedulerMetrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "nel3_scheduler_job_runs_total",
			Help:        "Scheduler job runs by job.",
			ConstLabels: labels,
		}, []string{"job"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "nel3_scheduler_job_errors_total",
			Help:        "Scheduler job failures by job.",
			ConstLabels: labels,
		}, []string{"job"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "nel3_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency by job.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"job"}),
	}
}

func (m *SchedulerMetrics) ObserveJob(job string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(job).Inc()
	m.duration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		m.errors.WithLabelValues(job).Inc()
	}
}
