package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	strategyRequestsTotal *prometheus.CounterVec
	strategyFailuresTotal *prometheus.CounterVec
	strategyDuration      *prometheus.HistogramVec
	retrievedSources      *prometheus.HistogramVec
	noContextTotal        *prometheus.CounterVec
	compareRunsTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragbench",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ragbench",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	strategyRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "rag",
			Name:      "strategy_requests_total",
			Help:      "Total successful RAG answers by strategy.",
		},
		[]string{"service", "strategy"},
	)
	strategyFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "rag",
			Name:      "strategy_failures_total",
			Help:      "Total failed RAG answers by strategy.",
		},
		[]string{"service", "strategy"},
	)
	strategyDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragbench",
			Subsystem: "rag",
			Name:      "strategy_duration_seconds",
			Help:      "End-to-end answer duration in seconds by strategy.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "strategy"},
	)
	retrievedSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragbench",
			Subsystem: "rag",
			Name:      "retrieved_sources",
			Help:      "Distribution of sources cited per successful answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "strategy"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total answers produced without any retrieved context.",
		},
		[]string{"service", "strategy"},
	)
	compareRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "rag",
			Name:      "compare_runs_total",
			Help:      "Total side-by-side comparison runs by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		strategyRequestsTotal,
		strategyFailuresTotal,
		strategyDuration,
		retrievedSources,
		noContextTotal,
		compareRunsTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		strategyRequestsTotal: strategyRequestsTotal,
		strategyFailuresTotal: strategyFailuresTotal,
		strategyDuration:      strategyDuration,
		retrievedSources:      retrievedSources,
		noContextTotal:        noContextTotal,
		compareRunsTotal:      compareRunsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordStrategyAnswer(service, strategy string, sourceCount int, duration time.Duration) {
	m.strategyRequestsTotal.WithLabelValues(service, strategy).Inc()
	m.strategyDuration.WithLabelValues(service, strategy).Observe(duration.Seconds())
	m.retrievedSources.WithLabelValues(service, strategy).Observe(float64(sourceCount))
	if sourceCount == 0 {
		m.noContextTotal.WithLabelValues(service, strategy).Inc()
	}
}

func (m *HTTPServerMetrics) RecordStrategyFailure(service, strategy string) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.strategyFailuresTotal.WithLabelValues(service, strategy).Inc()
}

func (m *HTTPServerMetrics) RecordCompareRun(service string, failedStrategies int) {
	outcome := "all_succeeded"
	if failedStrategies > 0 {
		outcome = "partial_failure"
	}
	m.compareRunsTotal.WithLabelValues(service, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
