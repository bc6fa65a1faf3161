package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/policy"
	"github.com/openjoinery/joinery/pkg/telemetry"
)

// ItemOutcome is how one quote item fared in a batch.
type ItemOutcome string

const (
	// ItemGenerated items ran their template.
	ItemGenerated ItemOutcome = "generated"

	// ItemFallback items have no template and got the single generic part.
	ItemFallback ItemOutcome = "fallback"

	// ItemFailed items kept their previous cutlist.
	ItemFailed ItemOutcome = "failed"
)

// ItemReport is the result of one quote item in a batch.
type ItemReport struct {
	QuoteItemID string             `json:"quote_item_id"`
	Product     string             `json:"product"`
	Template    string             `json:"template,omitempty"`
	Outcome     ItemOutcome        `json:"outcome"`
	Parts       int                `json:"parts"`
	Violations  []policy.Violation `json:"violations,omitempty"`
	Error       string             `json:"error,omitempty"`
	Err         error              `json:"-"`
	Duration    time.Duration      `json:"duration"`
}

// BatchReport summarises a cutlist batch for a quotation. Items are in
// quotation order regardless of which worker handled them.
type BatchReport struct {
	QuotationID string        `json:"quotation_id"`
	Items       []ItemReport  `json:"items"`
	Generated   int           `json:"generated"`
	Fallback    int           `json:"fallback"`
	Failed      int           `json:"failed"`
	Parts       int           `json:"parts"`
	Duration    time.Duration `json:"duration"`
}

// Failures returns the reports of failed items.
func (r *BatchReport) Failures() []ItemReport {
	var out []ItemReport
	for _, item := range r.Items {
		if item.Outcome == ItemFailed {
			out = append(out, item)
		}
	}
	return out
}

// FallbackPart is the single part used for items whose product has no
// template: named after the product, sized from the item with the depth
// as thickness.
func FallbackPart(item *engine.QuoteItem) engine.PartDescriptor {
	var name string
	if item.Product != nil {
		name = item.Product.Name
	}
	return engine.PartDescriptor{
		PartName:  name,
		PartType:  engine.PartTypeGeneric,
		Width:     valueOr(item.Width, 0),
		Height:    valueOr(item.Height, 0),
		Thickness: valueOr(item.Depth, 0),
		Quantity:  quantityOf(item),
	}
}

// GenerateCutlist regenerates the cutlist of every item of a quotation on a
// bounded worker pool. Each item's cutlist is replaced atomically; an item
// that fails keeps its previous cutlist and does not stop the others. The
// returned error covers only failures to load the quotation or a cancelled
// context.
func (s *Service) GenerateCutlist(ctx context.Context, quotationID string) (*BatchReport, error) {
	startTime := time.Now()

	if _, err := s.store.GetQuotation(ctx, quotationID); err != nil {
		return nil, err
	}
	items, err := s.store.ListQuoteItems(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.StartBatchSpan(ctx, quotationID, len(items))
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordBatchStarted()
		defer func() { s.metrics.RecordBatchCompleted(time.Since(startTime)) }()
	}

	logger := s.logger.With().Str("quotation_id", quotationID).Logger()
	logger.Debug().Int("items", len(items)).Int("workers", s.config.Workers).Msg("Generating cutlist")

	reports := make([]ItemReport, len(items))

	workerCount := s.config.Workers
	if len(items) < workerCount {
		workerCount = len(items)
	}

	workQueue := make(chan int, len(items))
	for i := range items {
		workQueue <- i
	}
	close(workQueue)

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range workQueue {
				if err := ctx.Err(); err != nil {
					reports[i] = failedReport(items[i], err, 0)
					continue
				}
				reports[i] = s.generateItem(ctx, quotationID, items[i])
			}
		}()
	}
	wg.Wait()

	report := &BatchReport{
		QuotationID: quotationID,
		Items:       reports,
		Duration:    time.Since(startTime),
	}
	for _, r := range reports {
		switch r.Outcome {
		case ItemGenerated:
			report.Generated++
		case ItemFallback:
			report.Fallback++
		case ItemFailed:
			report.Failed++
		}
		report.Parts += r.Parts
		if s.metrics != nil {
			s.metrics.RecordBatchItem(string(r.Outcome))
		}
	}

	span.SetAttributes(telemetry.AttrPartsCount.Int(report.Parts))
	if report.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d items failed", report.Failed, len(items)))
	} else {
		telemetry.RecordSuccess(span)
	}

	logger.Info().
		Int("generated", report.Generated).
		Int("fallback", report.Fallback).
		Int("failed", report.Failed).
		Int("parts", report.Parts).
		Dur("duration", report.Duration).
		Msg("Cutlist generated")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// generateItem runs the pipeline for one item, checks policies and stores
// the cutlist.
func (s *Service) generateItem(ctx context.Context, quotationID string, item *engine.QuoteItem) ItemReport {
	start := time.Now()

	var productName string
	if item.Product != nil {
		productName = item.Product.Name
	}
	ctx, span := s.tracer.StartItemSpan(ctx, item.ID, productName)
	defer span.End()

	logger := s.logger.With().
		Str("quotation_id", quotationID).
		Str("quote_item_id", item.ID).
		Str("product", productName).
		Logger()

	report := ItemReport{QuoteItemID: item.ID, Product: productName}
	if tmpl := item.TemplateOf(); tmpl != nil {
		report.Template = tmpl.Code
		span.SetAttributes(
			telemetry.AttrTemplateCode.String(tmpl.Code),
			telemetry.AttrTemplateVersion.Int(tmpl.Version),
		)
	}

	fail := func(err error) ItemReport {
		telemetry.RecordError(span, err)
		var ge *engine.GenerationError
		if errors.As(err, &ge) {
			span.SetAttributes(
				telemetry.AttrErrorKind.String(string(ge.Kind)),
				telemetry.AttrErrorStage.String(string(ge.Stage)),
			)
		}
		logger.Warn().Err(err).Msg("Quote item failed, keeping previous cutlist")

		r := failedReport(item, err, time.Since(start))
		r.Violations = report.Violations
		return r
	}

	result, err := s.generator.Generate(ctx, *item)
	if err != nil {
		return fail(err)
	}

	var parts []engine.PartDescriptor
	switch result.Outcome {
	case engine.OutcomeNoTemplate:
		report.Outcome = ItemFallback
		parts = []engine.PartDescriptor{FallbackPart(item)}
	default:
		report.Outcome = ItemGenerated
		parts = result.Parts
	}

	if s.policies != nil {
		violations, err := s.checkPolicies(ctx, quotationID, item, report.Template, parts)
		report.Violations = violations
		if err != nil {
			return fail(err)
		}
	}

	if _, err := s.store.ReplaceCutlist(ctx, quotationID, item.ID, parts); err != nil {
		return fail(err)
	}

	report.Parts = len(parts)
	report.Duration = time.Since(start)
	span.SetAttributes(telemetry.AttrPartsCount.Int(len(parts)))
	telemetry.RecordSuccess(span)

	logger.Debug().
		Str("outcome", string(report.Outcome)).
		Int("parts", report.Parts).
		Msg("Quote item cutlist stored")
	return report
}

// checkPolicies evaluates the item's parts. With enforcement on, blocking
// violations are returned as a PolicyDeniedError.
func (s *Service) checkPolicies(ctx context.Context, quotationID string, item *engine.QuoteItem, template string, parts []engine.PartDescriptor) ([]policy.Violation, error) {
	ctx, span := s.tracer.StartPolicySpan(ctx, len(s.policies.ListPolicies()))
	defer span.End()

	var productName string
	if item.Product != nil {
		productName = item.Product.Name
	}

	result, err := s.policies.Evaluate(ctx, &policy.Input{
		Sheet: policy.Sheet{Width: s.config.SheetWidth, Height: s.config.SheetHeight},
		Items: []policy.Item{{
			QuoteItemID: item.ID,
			Product:     productName,
			Template:    template,
			Parts:       parts,
		}},
		Context: &policy.Context{
			QuotationID: quotationID,
			Operation:   "generate",
		},
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to evaluate policies: %w", err)
	}

	for _, v := range result.Violations {
		s.logger.Warn().
			Str("quote_item_id", item.ID).
			Str("policy", v.Policy).
			Str("severity", string(v.Severity)).
			Msg(v.Message)
	}

	if s.config.EnforcePolicies && !result.Allowed {
		err := &PolicyDeniedError{QuoteItemID: item.ID, Violations: result.Blocking()}
		telemetry.RecordError(span, err)
		return result.Violations, err
	}
	return result.Violations, nil
}

func failedReport(item *engine.QuoteItem, err error, d time.Duration) ItemReport {
	r := ItemReport{
		QuoteItemID: item.ID,
		Outcome:     ItemFailed,
		Err:         err,
		Error:       err.Error(),
		Duration:    d,
	}
	if item.Product != nil {
		r.Product = item.Product.Name
	}
	if tmpl := item.TemplateOf(); tmpl != nil {
		r.Template = tmpl.Code
	}
	return r
}
