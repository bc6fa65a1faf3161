package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openjoinery/joinery/pkg/telemetry"
)

// Default sheet size in millimetres used by the material summary.
const (
	DefaultSheetWidth  = 2440.0
	DefaultSheetHeight = 1220.0
)

// AppConfig is the joinery configuration file.
type AppConfig struct {
	// DataDir holds the database and any generated output.
	DataDir string `yaml:"data_dir" validate:"required"`

	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Quote    QuoteConfig    `yaml:"quote"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path         string `yaml:"path" validate:"required"`
	MaxOpenConns int    `yaml:"max_open_conns,omitempty" validate:"gte=0"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `yaml:"format" validate:"oneof=console json"`
	Output string `yaml:"output,omitempty"`
}

// MetricsConfig configures the Prometheus registry.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address,omitempty" validate:"required_if=Enabled true"`
	Namespace     string `yaml:"namespace" validate:"required"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Exporter     string  `yaml:"exporter" validate:"oneof=none stdout otlp"`
	Endpoint     string  `yaml:"endpoint,omitempty" validate:"required_if=Exporter otlp"`
	SamplingRate float64 `yaml:"sampling_rate" validate:"gte=0,lte=1"`
	Insecure     bool    `yaml:"insecure,omitempty"`
}

// QuoteConfig configures cutlist generation for quotations.
type QuoteConfig struct {
	// Workers bounds the number of quote items generated concurrently.
	Workers int `yaml:"workers" validate:"gte=1,lte=64"`

	// SheetWidth and SheetHeight are the stock board size in millimetres.
	SheetWidth  float64 `yaml:"sheet_width" validate:"gt=0"`
	SheetHeight float64 `yaml:"sheet_height" validate:"gt=0"`

	// TemplateDir is imported by "joinery template import" when no path is given
	// and watched by "joinery watch".
	TemplateDir string `yaml:"template_dir,omitempty"`

	// PolicyDir holds additional Rego cutlist policies.
	PolicyDir string `yaml:"policy_dir,omitempty"`

	// EnforcePolicies rejects cutlists with policy violations instead of
	// reporting them.
	EnforcePolicies bool `yaml:"enforce_policies"`
}

// DefaultAppConfig returns the configuration written by "joinery init".
func DefaultAppConfig(dataDir string) *AppConfig {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &AppConfig{
		DataDir: dataDir,
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "joinery.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "joinery",
		},
		Tracing: TracingConfig{
			Exporter:     "none",
			SamplingRate: 1.0,
			Insecure:     true,
		},
		Quote: QuoteConfig{
			Workers:     4,
			SheetWidth:  DefaultSheetWidth,
			SheetHeight: DefaultSheetHeight,
			TemplateDir: "./templates",
			PolicyDir:   "",
		},
	}
}

// LoadAppConfig reads a YAML configuration file. Missing fields keep their
// defaults.
func LoadAppConfig(path string) (*AppConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultAppConfig("")
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(path string) error {
	content, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	header := []byte("# joinery configuration\n\n")
	if err := os.WriteFile(path, append(header, content...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration with its struct tags.
func (c *AppConfig) Validate() error {
	return validator.New().Struct(c)
}

// Telemetry maps the file settings onto a telemetry configuration.
func (c *AppConfig) Telemetry(version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version

	cfg.Logging.Level = c.Logging.Level
	cfg.Logging.Format = c.Logging.Format
	if c.Logging.Output != "" {
		cfg.Logging.Output = c.Logging.Output
	}

	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.ListenAddress = c.Metrics.ListenAddress
	cfg.Metrics.Namespace = c.Metrics.Namespace

	cfg.Tracing.Enabled = c.Tracing.Exporter != "none"
	cfg.Tracing.Exporter = c.Tracing.Exporter
	cfg.Tracing.Endpoint = c.Tracing.Endpoint
	cfg.Tracing.SamplingRate = c.Tracing.SamplingRate
	cfg.Tracing.Insecure = c.Tracing.Insecure

	return cfg
}
