// Package policy provides Open Policy Agent (OPA) checks over generated cutlists.
//
// Policies are Rego modules that define a "deny" set in their package. The
// input document holds the stock sheet size and one entry per quote item with
// its generated parts:
//
//	{
//	  "sheet": {"width": 2440, "height": 1220},
//	  "items": [{
//	    "quote_item_id": "...",
//	    "product": "Kitchen Base Cabinet",
//	    "template": "KITCHEN_BASE",
//	    "parts": [{"part_name": "Side Panel", "cut_width": 560, ...}]
//	  }],
//	  "context": {"quotation_id": "...", "operation": "generate"}
//	}
//
// Each element of deny is either a message string or an object with
// "message" and optionally "severity", "quote_item" and "part". Violations
// with error or critical severity make the result not Allowed.
//
// # Usage
//
//	eng, err := policy.NewEngine(logger, policy.WithMetrics(tel.Metrics))
//	if err != nil {
//	    return err
//	}
//	if err := eng.LoadPolicies(ctx, []string{"./policies"}); err != nil {
//	    return err
//	}
//
//	result, err := eng.Evaluate(ctx, &policy.Input{
//	    Sheet: policy.Sheet{Width: 2440, Height: 1220},
//	    Items: items,
//	})
//
// # Built-in Policies
//
//   - part-fits-sheet: every part fits the sheet in at least one orientation (error)
//   - positive-dimensions: width, height and thickness are above zero (error)
//   - material-assigned: parts name a material (warning)
//
// # Policy Files
//
// The Loader reads .rego files and JSON or YAML policy definitions from
// files and directories. A .rego file is named after its base name; a
// leading comment block becomes the description and a "# severity: error"
// line sets the default severity. A JSON or YAML file holds one policy or a
// Bundle with a "policies" list. Loader.Watch reloads policies when files
// change.
package policy
