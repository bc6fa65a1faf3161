package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics provides Prometheus metrics for cutlist generation. Collectors are
// always registered; MetricsConfig.Enabled only controls whether they are
// served over HTTP.
type Metrics struct {
	config MetricsConfig

	// Generation metrics
	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	partsGenerated     *prometheus.CounterVec
	generationErrors   *prometheus.CounterVec

	// Batch metrics
	batchItems    *prometheus.CounterVec
	batchDuration prometheus.Histogram
	activeBatches prometheus.Gauge

	// Policy metrics
	policyViolations *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of cutlist generations by template and outcome",
			},
			[]string{"template", "outcome"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of successful cutlist generations in seconds",
				Buckets:   buckets,
			},
			[]string{"template"},
		),
		partsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parts_generated_total",
				Help:      "Total number of part descriptors generated",
			},
			[]string{"template"},
		),
		generationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_errors_total",
				Help:      "Total number of failed generations by error kind and stage",
			},
			[]string{"template", "kind", "stage"},
		),

		batchItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_items_total",
				Help:      "Total number of quote items processed by quotation batches",
			},
			[]string{"outcome"},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Duration of quotation cutlist batches in seconds",
				Buckets:   buckets,
			},
		),
		activeBatches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_batches",
				Help:      "Current number of running quotation batches",
			},
		),

		policyViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_violations_total",
				Help:      "Total number of cutlist policy violations",
			},
			[]string{"policy", "severity"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.generations,
		m.generationDuration,
		m.partsGenerated,
		m.generationErrors,
		m.batchItems,
		m.batchDuration,
		m.activeBatches,
		m.policyViolations,
	)

	return m, nil
}

// Generation Metrics

// RecordGeneration records one finished generation.
func (m *Metrics) RecordGeneration(templateCode, outcome string, duration time.Duration, parts int) {
	m.generations.WithLabelValues(templateCode, outcome).Inc()
	if templateCode == "" {
		return
	}
	m.generationDuration.WithLabelValues(templateCode).Observe(duration.Seconds())
	m.partsGenerated.WithLabelValues(templateCode).Add(float64(parts))
}

// RecordGenerationError records a failed generation by kind and stage.
func (m *Metrics) RecordGenerationError(templateCode, kind, stage string) {
	m.generations.WithLabelValues(templateCode, "failed").Inc()
	m.generationErrors.WithLabelValues(templateCode, kind, stage).Inc()
}

// Batch Metrics

// RecordBatchStarted marks a quotation batch as running.
func (m *Metrics) RecordBatchStarted() {
	m.activeBatches.Inc()
}

// RecordBatchCompleted records a finished batch and its duration.
func (m *Metrics) RecordBatchCompleted(duration time.Duration) {
	m.activeBatches.Dec()
	m.batchDuration.Observe(duration.Seconds())
}

// RecordBatchItem records the outcome of one quote item in a batch
// (generated, fallback, failed).
func (m *Metrics) RecordBatchItem(outcome string) {
	m.batchItems.WithLabelValues(outcome).Inc()
}

// Policy Metrics

// RecordPolicyViolation records a policy violation.
func (m *Metrics) RecordPolicyViolation(policy, severity string) {
	m.policyViolations.WithLabelValues(policy, severity).Inc()
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer serves metrics until ctx is cancelled. It returns
// immediately when metrics are disabled.
func (m *Metrics) StartMetricsServer(ctx context.Context, logger zerolog.Logger) error {
	if !m.config.Enabled {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("address", m.config.ListenAddress).Msg("Metrics server failed")
		}
	}()

	logger.Info().Str("address", m.config.ListenAddress).Str("path", path).Msg("Serving metrics")
	return nil
}
