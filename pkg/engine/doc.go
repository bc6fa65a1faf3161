// Package engine turns a parametric cabinetry template and one quote item into
// an ordered cutlist.
//
// # Overview
//
// A template is four ordered rule lists over a shared variable context:
//
//   - Params: numeric inputs with optional defaults
//   - DerivedVars: formulas computed in ascending order
//   - ValidationRules: boolean guards evaluated before any part is produced
//   - PartRules: formulas for width, height, thickness and quantity of one part
//
// Formulas are written in the language of package expr.
//
// # Pipeline
//
// Each generation runs the following stages in order and stops at the first
// failure:
//
//  1. ResolveTemplate - load the Definition snapshot once from a provider
//  2. BuildContext - W, H, D from the item; T, BACK_T, PLINTH from the template
//  3. SeedParams - insert param defaults
//  4. ApplyOverrides - apply the item's JSON overrides
//  5. ResolveDerivedVars - evaluate derived formulas, each seeing the previous ones
//  6. Validate - fail with the rule's message on the first false condition
//  7. GenerateParts - one descriptor per rule whose quantity truncates above zero
//
// An item without a product or template is not a failure: the result carries
// OutcomeNoTemplate and the caller applies its own fallback.
//
// # Entry Points
//
// Execute is the pure form. It takes a loaded Definition and never performs
// I/O. Generator wraps it with provider lookup, zerolog logging, OpenTelemetry
// spans per stage and optional metrics:
//
//	gen := engine.NewGenerator(store, engine.WithLogger(logger))
//	res, err := gen.Generate(ctx, item)
//	switch {
//	case err != nil:
//	    // *engine.GenerationError with Kind and Stage
//	case res.Outcome == engine.OutcomeNoTemplate:
//	    // fallback
//	default:
//	    // res.Parts
//	}
//
// # Error Classification
//
// Every failure is a *GenerationError. Formula failures keep the evaluator's
// kind (lex, unresolved_variable, syntax, arithmetic); the pipeline adds
// validation, template_resolution and invalid_overrides. None are retryable:
// the same input fails the same way.
//
// # Thread Safety
//
// Variable contexts are per generation. Generator and StaticProvider are safe
// for concurrent use.
package engine
