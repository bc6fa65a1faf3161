package engine

import (
	"errors"
	"fmt"

	"github.com/openjoinery/joinery/pkg/expr"
)

// ErrorKind classifies a generation failure. The first four kinds mirror the
// evaluator's kinds and are carried through unchanged.
type ErrorKind string

const (
	// ErrorKindLex indicates an unrecognised character in a formula.
	ErrorKindLex ErrorKind = "lex"

	// ErrorKindUnresolvedVariable indicates a formula referenced a name
	// absent from the context, including forward references between
	// derived variables.
	ErrorKindUnresolvedVariable ErrorKind = "unresolved_variable"

	// ErrorKindSyntax indicates a malformed formula.
	ErrorKindSyntax ErrorKind = "syntax"

	// ErrorKindArithmetic indicates division by zero.
	ErrorKindArithmetic ErrorKind = "arithmetic"

	// ErrorKindValidation indicates a validation rule evaluated to false.
	ErrorKindValidation ErrorKind = "validation"

	// ErrorKindTemplateResolution indicates the definition provider failed.
	ErrorKindTemplateResolution ErrorKind = "template_resolution"

	// ErrorKindInvalidOverrides indicates the override payload is not a JSON object.
	ErrorKindInvalidOverrides ErrorKind = "invalid_overrides"
)

// GenerationError is the single failure reported for a quote item whose
// template is present but could not be run.
type GenerationError struct {
	// Kind is the failure classification.
	Kind ErrorKind `json:"kind"`

	// Stage is the pipeline stage that failed.
	Stage Stage `json:"stage"`

	// Subject names what was being processed: a derived variable, a part
	// rule or a validation condition.
	Subject string `json:"subject,omitempty"`

	// Message is the human-readable message. For validation failures it is
	// the failing rule's message verbatim.
	Message string `json:"message"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	prefix := fmt.Sprintf("[%s] %s", e.Kind, e.Stage)
	if e.Subject != "" {
		prefix = fmt.Sprintf("%s %q", prefix, e.Subject)
	}
	if e.Err != nil && e.Kind != ErrorKindValidation {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches another *GenerationError by kind.
func (e *GenerationError) Is(target error) bool {
	t, ok := target.(*GenerationError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// newStageError wraps an evaluator error, inheriting its kind.
func newStageError(stage Stage, subject, message string, err error) *GenerationError {
	return &GenerationError{
		Kind:    kindFromExpr(err),
		Stage:   stage,
		Subject: subject,
		Message: message,
		Err:     err,
	}
}

// NewValidationError reports a failed validation rule.
func NewValidationError(rule ValidationRule) *GenerationError {
	return &GenerationError{
		Kind:    ErrorKindValidation,
		Stage:   StageValidate,
		Subject: rule.Condition,
		Message: rule.Message,
	}
}

// NewTemplateResolutionError reports a definition provider failure.
func NewTemplateResolutionError(templateID string, err error) *GenerationError {
	return &GenerationError{
		Kind:    ErrorKindTemplateResolution,
		Stage:   StageResolveTemplate,
		Subject: templateID,
		Message: "failed to load template definition",
		Err:     err,
	}
}

func kindFromExpr(err error) ErrorKind {
	switch expr.KindOf(err) {
	case expr.KindLex:
		return ErrorKindLex
	case expr.KindUnresolvedVariable:
		return ErrorKindUnresolvedVariable
	case expr.KindArithmetic:
		return ErrorKindArithmetic
	default:
		return ErrorKindSyntax
	}
}

// KindOf returns the kind of a generation failure, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var e *GenerationError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidationFailure returns true if a validation rule rejected the context.
func IsValidationFailure(err error) bool {
	return KindOf(err) == ErrorKindValidation
}

// IsTemplateResolution returns true if the definition could not be loaded.
func IsTemplateResolution(err error) bool {
	return KindOf(err) == ErrorKindTemplateResolution
}

// IsFormulaError returns true if a formula failed to lex, parse or evaluate.
func IsFormulaError(err error) bool {
	switch KindOf(err) {
	case ErrorKindLex, ErrorKindUnresolvedVariable, ErrorKindSyntax, ErrorKindArithmetic:
		return true
	}
	return false
}
