package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// responseTimeWindow bounds the sliding response-time history.
const responseTimeWindow = 1000

// Metrics tracks server counters behind one mutex and mirrors them into a
// private Prometheus registry for scraping.
type Metrics struct {
	mu        sync.Mutex
	start     time.Time
	requests  int64
	errors    int64
	toolCalls map[string]int64
	samples   []float64

	registry     *prometheus.Registry
	promRequests prometheus.Counter
	promErrors   prometheus.Counter
	promTools    *prometheus.CounterVec
	promLatency  prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		start:     time.Now(),
		toolCalls: make(map[string]int64),
		registry:  prometheus.NewRegistry(),
		promRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_requests_total",
			Help: "Total JSON-RPC requests handled.",
		}),
		promErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_errors_total",
			Help: "Total requests that ended in an error response.",
		}),
		promTools: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_tool_calls_total",
			Help: "Tool invocations by tool name.",
		}, []string{"tool"}),
		promLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_request_duration_seconds",
			Help:    "Request handling latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.promRequests, m.promErrors, m.promTools, m.promLatency)
	return m
}

// RecordRequest counts one handled request and its latency.
func (m *Metrics) RecordRequest(elapsed time.Duration, isError bool) {
	seconds := elapsed.Seconds()

	m.mu.Lock()
	m.requests++
	if isError {
		m.errors++
	}
	m.samples = append(m.samples, seconds)
	if len(m.samples) > responseTimeWindow {
		m.samples = m.samples[len(m.samples)-responseTimeWindow:]
	}
	m.mu.Unlock()

	m.promRequests.Inc()
	if isError {
		m.promErrors.Inc()
	}
	m.promLatency.Observe(seconds)
}

// RecordToolCall counts one tool invocation.
func (m *Metrics) RecordToolCall(name string) {
	m.mu.Lock()
	m.toolCalls[name]++
	m.mu.Unlock()
	m.promTools.WithLabelValues(name).Inc()
}

// Snapshot is the JSON shape of the metrics endpoint.
type Snapshot struct {
	TotalRequests              int64            `json:"total_requests"`
	ToolCallsByName            map[string]int64 `json:"tool_calls_by_name"`
	ErrorCount                 int64            `json:"error_count"`
	AverageResponseTimeSeconds float64          `json:"average_response_time_seconds"`
	Uptime                     string           `json:"uptime"`
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	tools := make(map[string]int64, len(m.toolCalls))
	for name, n := range m.toolCalls {
		tools[name] = n
	}
	var avg float64
	if len(m.samples) > 0 {
		var sum float64
		for _, s := range m.samples {
			sum += s
		}
		avg = sum / float64(len(m.samples))
	}
	return Snapshot{
		TotalRequests:              m.requests,
		ToolCallsByName:            tools,
		ErrorCount:                 m.errors,
		AverageResponseTimeSeconds: avg,
		Uptime:                     time.Since(m.start).Round(time.Second).String(),
	}
}

// Uptime reports how long the server has been up.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.start)
}

// PrometheusHandler serves the mirrored counters in exposition format.
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
