// Package config loads joinery template definitions and the application
// configuration file.
//
// # Template files
//
// Templates are authored in CUE or YAML. Both formats declare a top-level
// "templates" map keyed by template code:
//
//	templates: OPEN_SHELF: {
//	    name: "Open Shelf Unit"
//	    params: [{name: "SHELF_COUNT", default: 3, min: 1, max: 8}]
//	    derived_vars: [{name: "INTERNAL_W", formula: "W - 2*T"}]
//	    validations: [{condition: "W > 0", message: "Width must be positive"}]
//	    parts: [
//	        {name: "Side", width: "D", height: "H", qty: "2"},
//	        {name: "Shelf", width: "INTERNAL_W", height: "D", qty: "SHELF_COUNT"},
//	    ]
//	}
//
// Every entry is unified with the built-in #Template CUE schema, which
// supplies defaults and rejects unknown fields, and is then checked with
// go-playground/validator struct tags. Derived variables and parts run in
// the order they are listed; validations are checked in the order they are
// listed.
//
// TemplateParser reports problems per template with file, line and field
// path, so a directory with one broken file still yields the valid ones.
//
// # Built-in templates
//
// KITCHEN_BASE and WARDROBE_2_SPLIT are embedded in the binary and returned
// by BuiltinDefinitions.
//
// # Application configuration
//
// AppConfig is read from YAML (LoadAppConfig), validated with struct tags
// and mapped onto telemetry settings with AppConfig.Telemetry.
//
// # Watching
//
// Watcher uses fsnotify to report debounced changes to template files.
package config
