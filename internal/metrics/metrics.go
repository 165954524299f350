package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	QueriesTotal          *prometheus.CounterVec
	QueryDuration         prometheus.Histogram
	StageFailuresTotal    *prometheus.CounterVec
	ShortCircuitedQueries prometheus.Counter

	// Tool metrics
	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	// Gateway metrics
	ConnectionsActive prometheus.Gauge
	EventsSentTotal   prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_queries_total",
				Help: "Total number of pipeline queries processed",
			},
			[]string{"status"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeline_query_duration_seconds",
				Help:    "Wall-clock duration of pipeline queries in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		StageFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_stage_failures_total",
				Help: "Total number of degraded pipeline stages",
			},
			[]string{"stage"},
		),
		ShortCircuitedQueries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_short_circuited_queries_total",
				Help: "Queries answered directly without tool dispatch",
			},
		),

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),

		ConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_connections_active",
				Help: "Number of active gateway WebSocket connections",
			},
		),
		EventsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_events_sent_total",
				Help: "Total number of stream events sent to gateway clients",
			},
		),
	}

	registry.MustRegister(
		m.QueriesTotal,
		m.QueryDuration,
		m.StageFailuresTotal,
		m.ShortCircuitedQueries,
		m.ToolExecutionsTotal,
		m.ToolExecutionDuration,
		m.ConnectionsActive,
		m.EventsSentTotal,
	)

	return m
}

// RecordToolExecution records a single tool execution outcome
func (m *Metrics) RecordToolExecution(toolName, status string, elapsed time.Duration) {
	m.ToolExecutionsTotal.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(elapsed.Seconds())
}

// RecordQuery records a completed pipeline query
func (m *Metrics) RecordQuery(status string, elapsed time.Duration) {
	m.QueriesTotal.WithLabelValues(status).Inc()
	m.QueryDuration.Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
