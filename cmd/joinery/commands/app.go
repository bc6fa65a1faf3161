package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openjoinery/joinery/pkg/config"
	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/policy"
	"github.com/openjoinery/joinery/pkg/quote"
	"github.com/openjoinery/joinery/pkg/stores"
	"github.com/openjoinery/joinery/pkg/telemetry"
)

// app holds the components shared by commands that need the database.
type app struct {
	cfg       *config.AppConfig
	tel       *telemetry.Telemetry
	logger    zerolog.Logger
	store     *stores.SQLiteStore
	generator *engine.Generator
	policies  *policy.Engine
	service   *quote.Service

	stopMetrics context.CancelFunc
}

// loadConfig reads the config file. A missing default file yields the
// default configuration; a missing explicit file is an error.
func loadConfig() (*config.AppConfig, error) {
	path := configPath
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadAppConfig(path)
	if err != nil {
		if configPath == "" && errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("config", path).Msg("No config file, using defaults")
			return config.DefaultAppConfig(""), nil
		}
		return nil, err
	}
	return cfg, nil
}

// openApp loads the configuration, sets up telemetry, opens and migrates
// the store and wires the generator, policy engine and quotation service.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	tel, err := telemetry.NewTelemetry(cfg.Telemetry(buildVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	// The metrics server runs until stopMetrics is called or ctx ends.
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	a := &app{
		cfg:         cfg,
		tel:         tel,
		logger:      tel.Logger.Zerolog(),
		stopMetrics: stopMetrics,
	}
	fail := func(err error) (*app, error) {
		a.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	if err := tel.StartMetricsServer(metricsCtx); err != nil {
		return fail(fmt.Errorf("failed to start metrics server: %w", err))
	}

	a.store, err = openStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	a.policies, err = policy.NewEngine(a.logger, policy.WithMetrics(tel.Metrics))
	if err != nil {
		return fail(fmt.Errorf("failed to create policy engine: %w", err))
	}
	if cfg.Quote.PolicyDir != "" {
		if err := a.policies.LoadPolicies(ctx, []string{cfg.Quote.PolicyDir}); err != nil {
			return fail(err)
		}
	}

	a.generator = engine.NewGenerator(a.store,
		engine.WithLogger(a.logger),
		engine.WithTracer(tel.Tracer),
		engine.WithMetrics(tel.Metrics),
	)

	a.service = quote.NewService(a.store, a.generator,
		quote.Config{
			Workers:         cfg.Quote.Workers,
			SheetWidth:      cfg.Quote.SheetWidth,
			SheetHeight:     cfg.Quote.SheetHeight,
			EnforcePolicies: cfg.Quote.EnforcePolicies,
		},
		quote.WithLogger(a.logger),
		quote.WithTracer(tel.Tracer),
		quote.WithMetrics(tel.Metrics),
		quote.WithPolicies(a.policies),
	)

	return a, nil
}

func openStore(ctx context.Context, cfg *config.AppConfig) (*stores.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := stores.NewSQLiteStore(stores.Config{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close stops the metrics server, flushes telemetry and closes the store.
// It is safe on a partially opened app.
func (a *app) Close(ctx context.Context) {
	if a.stopMetrics != nil {
		a.stopMetrics()
	}
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Telemetry shutdown failed")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close store")
		}
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
