package policy

import (
	"time"

	"github.com/openjoinery/joinery/pkg/engine"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for errors that should block operations.
	SeverityError Severity = "error"

	// SeverityCritical is for critical violations that must be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Blocking reports whether a violation of this severity denies the cutlist.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// Policy represents a policy rule with its Rego code. The Rego module must
// define a "deny" set in its package.
type Policy struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Rego        string   `json:"rego" yaml:"rego"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Enabled     bool     `json:"enabled" yaml:"enabled"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Metadata["source"] holds the file a loaded policy came from and
	// Metadata["bundle"] the bundle that carried it.
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// QuoteItemID is the quote item whose cutlist violated the policy.
	QuoteItemID string `json:"quote_item_id,omitempty"`

	// Part is the offending part name, if the policy reports one.
	Part string `json:"part,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Result represents the result of policy evaluation.
type Result struct {
	// Allowed is false when any violation is blocking.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists policies that failed to evaluate.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedAt is when the policy was evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Blocking returns the violations that deny the cutlist.
func (r *Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity.Blocking() {
			out = append(out, v)
		}
	}
	return out
}

// Input is the document policies see as "input".
type Input struct {
	// Sheet is the stock board size parts are cut from.
	Sheet Sheet `json:"sheet"`

	// Items are the generated cutlists under evaluation.
	Items []Item `json:"items"`

	// Context provides additional evaluation context.
	Context *Context `json:"context"`
}

// Sheet is a stock board size in millimetres.
type Sheet struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Item is one quote item's generated cutlist.
type Item struct {
	QuoteItemID string                  `json:"quote_item_id"`
	Product     string                  `json:"product"`
	Template    string                  `json:"template,omitempty"`
	Parts       []engine.PartDescriptor `json:"parts"`
}

// Context provides context information for policy evaluation.
type Context struct {
	// QuotationID is the quotation being generated.
	QuotationID string `json:"quotation_id,omitempty"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`

	// Operation is the operation being performed (e.g., "generate", "check").
	Operation string `json:"operation,omitempty"`

	// Metadata contains additional context metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Bundle is a policy file that carries several policies under a
// "policies" key.
type Bundle struct {
	Name        string    `json:"name" yaml:"name"`
	Version     string    `json:"version" yaml:"version"`
	Description string    `json:"description" yaml:"description"`
	Policies    []Policy  `json:"policies" yaml:"policies"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}
