// Package metrics exposes pipeline and tool-call counters in Prometheus
// format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codex-k8s/aha-mcp-server/internal/pipeline"
)

const namespace = "aha_mcp"

// Recorder owns a private registry. It implements pipeline.Observer.
type Recorder struct {
	registry *prometheus.Registry

	limiterWait     prometheus.Histogram
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	backoffs        *prometheus.CounterVec
	backoffSeconds  prometheus.Counter
	calls           *prometheus.CounterVec
	callAttempts    prometheus.Histogram
	toolCalls       *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
}

var _ pipeline.Observer = (*Recorder)(nil)

// New registers all collectors, including Go runtime and process metrics.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		limiterWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "limiter_wait_seconds",
			Help:      "Time spent waiting for a rate limiter token.",
			Buckets:   []float64{0, .05, .1, .2, .5, 1, 2, 5, 10},
		}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "attempts_total",
			Help:      "Transport attempts by HTTP method and result.",
		}, []string{"method", "result"}),
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of single transport attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		backoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "retries_total",
			Help:      "Retries scheduled by failure kind.",
		}, []string{"method", "kind"}),
		backoffSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "backoff_seconds_total",
			Help:      "Total time slept between retries.",
		}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "calls_total",
			Help:      "Completed pipeline calls by HTTP method and outcome.",
		}, []string{"method", "result"}),
		callAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "call_attempts",
			Help:      "Attempts needed per pipeline call.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 11},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "MCP tool calls by tool and result.",
		}, []string{"tool", "result"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "call_duration_seconds",
			Help:      "MCP tool call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.limiterWait,
		r.attempts,
		r.attemptDuration,
		r.backoffs,
		r.backoffSeconds,
		r.calls,
		r.callAttempts,
		r.toolCalls,
		r.toolDuration,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveWait records time spent waiting on the rate limiter.
func (r *Recorder) ObserveWait(d time.Duration) {
	r.limiterWait.Observe(d.Seconds())
}

// ObserveAttempt records one HTTP attempt and its duration.
func (r *Recorder) ObserveAttempt(method, result string, elapsed time.Duration) {
	r.attempts.WithLabelValues(method, result).Inc()
	r.attemptDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveBackoff records a retry and the delay slept before it.
func (r *Recorder) ObserveBackoff(method string, kind pipeline.Kind, delay time.Duration) {
	r.backoffs.WithLabelValues(method, string(kind)).Inc()
	r.backoffSeconds.Add(delay.Seconds())
}

// ObserveCall records the final outcome of a pipeline call.
func (r *Recorder) ObserveCall(method, result string, attempts int) {
	r.calls.WithLabelValues(method, result).Inc()
	r.callAttempts.Observe(float64(attempts))
}

// ObserveTool records one MCP tool invocation.
func (r *Recorder) ObserveTool(tool, result string, elapsed time.Duration) {
	r.toolCalls.WithLabelValues(tool, result).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}
