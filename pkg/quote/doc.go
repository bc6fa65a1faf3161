// Package quote manages quotations and turns them into stored cutlists.
//
// A Service wraps a stores.Store and an engine.Generator. It prices items
// from their product's pricing model as they are added, keeps the quotation
// total in step, and freezes a quotation once it is submitted.
//
// GenerateCutlist runs every item of a quotation through the generator on a
// bounded worker pool:
//
//	svc := quote.NewService(store, engine.NewGenerator(store), quote.DefaultConfig(),
//	    quote.WithLogger(logger),
//	    quote.WithPolicies(policies),
//	)
//	report, err := svc.GenerateCutlist(ctx, quotationID)
//
// Items whose product has no template get a single generic part sized from
// the item. An item that fails keeps its previous cutlist and is reported in
// the BatchReport; the other items are unaffected.
//
// When a policy evaluator is configured, each item's parts are checked
// before they are stored. Violations are advisory unless
// Config.EnforcePolicies is set, in which case blocking violations fail the
// item with a PolicyDeniedError.
//
// Summary tallies a stored cutlist by material and thickness against the
// stock sheet size. It is an area bound only and does not nest parts.
package quote
