package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/policy"
	"github.com/openjoinery/joinery/pkg/stores"
)

// Default stock sheet size in millimetres.
const (
	DefaultSheetWidth  = 2440.0
	DefaultSheetHeight = 1220.0
)

// ErrNotDraft is returned when items of a submitted quotation are changed.
var ErrNotDraft = errors.New("cannot modify a non-draft quotation")

// PolicyDeniedError reports a cutlist rejected by blocking policy violations.
type PolicyDeniedError struct {
	QuoteItemID string
	Violations  []policy.Violation
}

func (e *PolicyDeniedError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Policy+": "+v.Message)
	}
	return fmt.Sprintf("cutlist for quote item %s denied by policy: %s", e.QuoteItemID, strings.Join(msgs, "; "))
}

// IsPolicyDenied reports whether err is a PolicyDeniedError.
func IsPolicyDenied(err error) bool {
	var pe *PolicyDeniedError
	return errors.As(err, &pe)
}

// Tracer starts the spans of a batch. telemetry.Tracer satisfies it.
type Tracer interface {
	StartBatchSpan(ctx context.Context, quotationID string, items int) (context.Context, trace.Span)
	StartItemSpan(ctx context.Context, quoteItemID, productName string) (context.Context, trace.Span)
	StartPolicySpan(ctx context.Context, policyCount int) (context.Context, trace.Span)
}

// BatchRecorder receives batch measurements. telemetry.Metrics satisfies it.
type BatchRecorder interface {
	RecordBatchStarted()
	RecordBatchCompleted(duration time.Duration)
	RecordBatchItem(outcome string)
}

// PolicyEvaluator checks generated cutlists. policy.Engine satisfies it.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, input *policy.Input) (*policy.Result, error)
	ListPolicies() []policy.Policy
}

// Config holds the quotation service settings.
type Config struct {
	// Workers bounds how many quote items are generated concurrently.
	Workers int

	// SheetWidth and SheetHeight are the stock board size used for the
	// material summary and sheet policies.
	SheetWidth  float64
	SheetHeight float64

	// EnforcePolicies turns blocking policy violations into item failures.
	// Otherwise violations are only reported.
	EnforcePolicies bool
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		SheetWidth:  DefaultSheetWidth,
		SheetHeight: DefaultSheetHeight,
	}
}

// Service manages quotations and generates their cutlists.
type Service struct {
	store     stores.Store
	generator *engine.Generator
	policies  PolicyEvaluator
	metrics   BatchRecorder
	tracer    Tracer
	logger    zerolog.Logger
	config    Config
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer sets the tracer for batch and item spans.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMetrics sets the batch metrics recorder.
func WithMetrics(m BatchRecorder) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPolicies enables policy checks on every generated cutlist.
func WithPolicies(p PolicyEvaluator) Option {
	return func(s *Service) {
		s.policies = p
	}
}

// NewService creates a quotation service. generator must read definitions
// from the same store.
func NewService(store stores.Store, generator *engine.Generator, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.SheetWidth <= 0 {
		cfg.SheetWidth = def.SheetWidth
	}
	if cfg.SheetHeight <= 0 {
		cfg.SheetHeight = def.SheetHeight
	}

	s := &Service{
		store:     store,
		generator: generator,
		tracer:    nopTracer{},
		logger:    zerolog.Nop(),
		config:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "quote").Logger()
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.config
}

type nopTracer struct{}

func (nopTracer) start(ctx context.Context) (context.Context, trace.Span) {
	return noop.NewTracerProvider().Tracer("").Start(ctx, "")
}

func (t nopTracer) StartBatchSpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return t.start(ctx)
}

func (t nopTracer) StartItemSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return t.start(ctx)
}

func (t nopTracer) StartPolicySpan(ctx context.Context, _ int) (context.Context, trace.Span) {
	return t.start(ctx)
}
