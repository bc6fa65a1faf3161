package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanStarter starts trace spans. Both trace.Tracer and telemetry.Tracer
// satisfy it.
type SpanStarter interface {
	Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// Execute runs the pipeline for item against an already loaded definition.
// A nil definition yields OutcomeNoTemplate. Rule lists may be in any slice
// order: derived variables and parts run by Order, validation rules by
// Position. Execute performs no I/O and keeps no state between calls;
// identical inputs always yield identical results.
func Execute(def *Definition, item QuoteItem) (Result, error) {
	return execute(def, item, func(_ Stage, fn func() error) error { return fn() })
}

// stageRunner runs one stage body, letting callers wrap it with spans.
type stageRunner func(stage Stage, fn func() error) error

func execute(def *Definition, item QuoteItem, run stageRunner) (Result, error) {
	if def == nil {
		return Result{Outcome: OutcomeNoTemplate}, nil
	}

	// Sort copies the rule lists, so def itself is left untouched.
	snap := *def
	snap.Sort()
	def = &snap

	var (
		vars  Vars
		parts []PartDescriptor
	)

	steps := []struct {
		stage Stage
		fn    func() error
	}{
		{StageBuildContext, func() error {
			vars = BuildContext(def.Template, item)
			return nil
		}},
		{StageSeedParams, func() error {
			vars.SeedParams(def.Params)
			return nil
		}},
		{StageApplyOverrides, func() error {
			if err := vars.ApplyOverrides(item.Overrides); err != nil {
				return &GenerationError{
					Kind:    ErrorKindInvalidOverrides,
					Stage:   StageApplyOverrides,
					Subject: item.ID,
					Message: "override payload is not a JSON object",
					Err:     err,
				}
			}
			return nil
		}},
		{StageResolveDerivedVars, func() error {
			return vars.ResolveDerivedVars(def.DerivedVars)
		}},
		{StageValidate, func() error {
			return vars.Validate(def.ValidationRules)
		}},
		{StageGenerateParts, func() (err error) {
			parts, err = vars.GenerateParts(def.PartRules)
			return err
		}},
	}

	for _, step := range steps {
		if err := run(step.stage, step.fn); err != nil {
			return Result{}, err
		}
	}

	return Result{Outcome: OutcomeGenerated, Parts: parts}, nil
}

// Generator resolves a quote item's template through a provider and runs the
// pipeline with logging, tracing and metrics. It holds no per-generation
// state and is safe for concurrent use.
type Generator struct {
	provider TemplateDefinitionProvider
	logger   zerolog.Logger
	tracer   SpanStarter
	metrics  MetricsRecorder
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the generator's logger.
func WithLogger(logger zerolog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithTracer sets the tracer used for generation and stage spans.
func WithTracer(tracer SpanStarter) GeneratorOption {
	return func(g *Generator) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) GeneratorOption {
	return func(g *Generator) {
		g.metrics = m
	}
}

// NewGenerator creates a generator reading definitions from provider.
func NewGenerator(provider TemplateDefinitionProvider, opts ...GeneratorOption) *Generator {
	g := &Generator{
		provider: provider,
		logger:   zerolog.Nop(),
		tracer:   otel.Tracer("github.com/openjoinery/joinery/pkg/engine"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs the pipeline for item. Items without a product or template
// yield OutcomeNoTemplate and no error. The definition is loaded once per call.
func (g *Generator) Generate(ctx context.Context, item QuoteItem) (Result, error) {
	start := time.Now()

	tmpl := item.TemplateOf()
	if tmpl == nil {
		g.logger.Debug().Str("quote_item_id", item.ID).Msg("No template assigned")
		g.record("", OutcomeNoTemplate, start, 0)
		return Result{Outcome: OutcomeNoTemplate}, nil
	}

	ctx, span := g.tracer.Start(ctx, "engine.generate", trace.WithAttributes(
		attribute.String("template.code", tmpl.Code),
		attribute.Int("template.version", tmpl.Version),
		attribute.String("quote_item.id", item.ID),
	))
	defer span.End()

	logger := g.logger.With().
		Str("template", tmpl.Code).
		Str("quote_item_id", item.ID).
		Logger()

	result, err := g.generate(ctx, *tmpl, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var stage, kind string
		var ge *GenerationError
		if errors.As(err, &ge) {
			stage, kind = string(ge.Stage), string(ge.Kind)
		}
		if g.metrics != nil {
			g.metrics.RecordGenerationError(tmpl.Code, kind, stage)
		}

		logger.Warn().Err(err).Str("stage", stage).Str("kind", kind).Msg("Cutlist generation failed")
		return Result{}, err
	}

	span.SetAttributes(attribute.Int("parts.count", len(result.Parts)))
	span.SetStatus(codes.Ok, "")
	g.record(tmpl.Code, result.Outcome, start, len(result.Parts))

	logger.Debug().
		Int("parts", len(result.Parts)).
		Dur("duration", time.Since(start)).
		Msg("Generated cutlist")
	return result, nil
}

func (g *Generator) generate(ctx context.Context, tmpl Template, item QuoteItem) (Result, error) {
	var def *Definition
	err := g.runStage(ctx, StageResolveTemplate, func() error {
		var err error
		def, err = LoadDefinition(ctx, g.provider, tmpl)
		if err != nil {
			return NewTemplateResolutionError(tmpl.ID, err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return execute(def, item, func(stage Stage, fn func() error) error {
		return g.runStage(ctx, stage, fn)
	})
}

func (g *Generator) runStage(ctx context.Context, stage Stage, fn func() error) error {
	_, span := g.tracer.Start(ctx, "engine.stage."+string(stage))
	defer span.End()

	if err := fn(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (g *Generator) record(code string, outcome Outcome, start time.Time, parts int) {
	if g.metrics == nil {
		return
	}
	g.metrics.RecordGeneration(code, string(outcome), time.Since(start), parts)
}
