// Package stores provides the SQLite persistence layer for joinery.
// It holds templates with their params, derived variables, part rules and
// validation rules, the product catalogue, quotations, quote items and
// generated cutlists. Schema changes are applied with embedded golang-migrate
// migrations. SQLiteStore implements engine.TemplateDefinitionProvider.
package stores
