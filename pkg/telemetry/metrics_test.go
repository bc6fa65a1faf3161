package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(DefaultConfig().Metrics)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m
}

func TestRecordGeneration(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordGeneration("KITCHEN_BASE", "generated", 3*time.Millisecond, 6)
	m.RecordGeneration("KITCHEN_BASE", "generated", time.Millisecond, 6)
	m.RecordGeneration("", "no_template", 0, 0)

	if got := testutil.ToFloat64(m.generations.WithLabelValues("KITCHEN_BASE", "generated")); got != 2 {
		t.Errorf("generations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.partsGenerated.WithLabelValues("KITCHEN_BASE")); got != 12 {
		t.Errorf("parts = %v, want 12", got)
	}
	if got := testutil.ToFloat64(m.generations.WithLabelValues("", "no_template")); got != 1 {
		t.Errorf("no_template generations = %v, want 1", got)
	}
	// Without a template there is nothing to time.
	if got := testutil.CollectAndCount(m.generationDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestRecordGenerationError(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordGenerationError("WARDROBE_2_SPLIT", "validation_failed", "validation")

	if got := testutil.ToFloat64(m.generations.WithLabelValues("WARDROBE_2_SPLIT", "failed")); got != 1 {
		t.Errorf("failed generations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.generationErrors.WithLabelValues("WARDROBE_2_SPLIT", "validation_failed", "validation")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestBatchMetrics(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordBatchStarted()
	m.RecordBatchStarted()
	if got := testutil.ToFloat64(m.activeBatches); got != 2 {
		t.Errorf("active batches = %v, want 2", got)
	}

	m.RecordBatchItem("generated")
	m.RecordBatchItem("fallback")
	m.RecordBatchItem("generated")
	m.RecordBatchCompleted(10 * time.Millisecond)

	if got := testutil.ToFloat64(m.activeBatches); got != 1 {
		t.Errorf("active batches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.batchItems.WithLabelValues("generated")); got != 2 {
		t.Errorf("generated items = %v, want 2", got)
	}

	m.RecordPolicyViolation("fits_sheet", "error")
	if got := testutil.ToFloat64(m.policyViolations.WithLabelValues("fits_sheet", "error")); got != 1 {
		t.Errorf("policy violations = %v, want 1", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordGeneration("OPEN_SHELF", "generated", time.Millisecond, 4)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `joinery_parts_generated_total{template="OPEN_SHELF"} 4`) {
		t.Errorf("metrics output missing parts counter:\n%s", body)
	}
}

func TestStartMetricsServerDisabled(t *testing.T) {
	m := newTestMetrics(t)
	if err := m.StartMetricsServer(context.Background(), zerolog.Nop()); err != nil {
		t.Errorf("StartMetricsServer() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "production", mutate: func(c *Config) { *c = *ProductionConfig() }},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
			},
			wantErr: true,
		},
		{name: "sampling out of range", mutate: func(c *Config) { c.Tracing.SamplingRate = 2 }, wantErr: true},
		{
			name: "metrics without address",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.ListenAddress = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
