package config

import (
	"strconv"
	"time"

	"github.com/openjoinery/joinery/pkg/engine"
)

// TemplateFile is one template definition as authored in a CUE or YAML file.
// Rule lists are ordered: derived variables and parts run in slice order and
// validation rules are checked in slice order.
type TemplateFile struct {
	// Code is the unique template code (e.g., "KITCHEN_BASE"). Defaults to the
	// key the template is declared under.
	Code string `json:"code" yaml:"code" validate:"required"`

	// Name is the human-readable name.
	Name string `json:"name" yaml:"name" validate:"required"`

	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Version is bumped whenever the rules change.
	Version int `json:"version,omitempty" yaml:"version,omitempty" validate:"gte=0"`

	// BaseThickness is bound to T. Defaults to 18.
	BaseThickness *float64 `json:"base_thickness,omitempty" yaml:"base_thickness,omitempty" validate:"omitempty,gt=0"`

	// BackPanelThickness is bound to BACK_T. Defaults to 6.
	BackPanelThickness *float64 `json:"back_panel_thickness,omitempty" yaml:"back_panel_thickness,omitempty" validate:"omitempty,gt=0"`

	// PlinthHeight is bound to PLINTH. Defaults to 100.
	PlinthHeight *float64 `json:"plinth_height,omitempty" yaml:"plinth_height,omitempty" validate:"omitempty,gte=0"`

	Params      []ParamConfig      `json:"params,omitempty" yaml:"params,omitempty" validate:"dive"`
	DerivedVars []DerivedVarConfig `json:"derived_vars,omitempty" yaml:"derived_vars,omitempty" validate:"dive"`
	Parts       []PartConfig       `json:"parts,omitempty" yaml:"parts,omitempty" validate:"dive"`
	Validations []ValidationConfig `json:"validations,omitempty" yaml:"validations,omitempty" validate:"dive"`
}

// ParamConfig declares a user-tunable numeric parameter.
type ParamConfig struct {
	Name     string   `json:"name" yaml:"name" validate:"required"`
	Default  *float64 `json:"default,omitempty" yaml:"default,omitempty"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Help     string   `json:"help,omitempty" yaml:"help,omitempty"`
}

// DerivedVarConfig declares a named intermediate formula.
type DerivedVarConfig struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Formula string `json:"formula" yaml:"formula" validate:"required"`
}

// PartConfig declares one manufacturing rule.
type PartConfig struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Width     string `json:"width" yaml:"width" validate:"required"`
	Height    string `json:"height" yaml:"height" validate:"required"`
	Thickness string `json:"thickness,omitempty" yaml:"thickness,omitempty"`
	Qty       string `json:"qty" yaml:"qty" validate:"required"`

	Material    string `json:"material,omitempty" yaml:"material,omitempty"`
	EdgeBanding string `json:"edge_banding,omitempty" yaml:"edge_banding,omitempty"`
	Grain       string `json:"grain,omitempty" yaml:"grain,omitempty"`
}

// ValidationConfig declares a boolean precondition.
type ValidationConfig struct {
	Condition string `json:"condition" yaml:"condition" validate:"required"`
	Message   string `json:"message" yaml:"message" validate:"required"`
}

// ValidationError represents a parse or validation error with location information.
type ValidationError struct {
	// File is the source file where the error occurred.
	File string `json:"file,omitempty"`

	// Line is the line number (1-based).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-based).
	Column int `json:"column,omitempty"`

	// Path is the field path (e.g., "templates.KITCHEN_BASE.parts[2].qty").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`

	// Severity is the error severity (error, warning, info).
	Severity string `json:"severity"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	loc := e.File
	if e.Line > 0 {
		if loc != "" {
			loc += ":"
		}
		loc += strconv.Itoa(e.Line)
		if e.Column > 0 {
			loc += ":" + strconv.Itoa(e.Column)
		}
	}
	if e.Path != "" {
		if loc != "" {
			loc += " "
		}
		loc += e.Path
	}
	if loc == "" {
		return e.Message
	}
	return loc + ": " + e.Message
}

// ParsedTemplates is the result of parsing one or more template sources.
type ParsedTemplates struct {
	// Templates are the decoded template files, ordered by source and then by code.
	Templates []TemplateFile

	// SourceFiles lists all files that were parsed.
	SourceFiles []string

	// ParsedAt is when the sources were parsed.
	ParsedAt time.Time

	// Errors contains any parse or validation errors.
	Errors []ValidationError
}

// HasErrors reports whether any source failed to parse or validate.
func (p *ParsedTemplates) HasErrors() bool {
	return len(p.Errors) > 0
}

// Definitions converts every parsed template into an engine definition.
func (p *ParsedTemplates) Definitions() []*engine.Definition {
	defs := make([]*engine.Definition, 0, len(p.Templates))
	for i := range p.Templates {
		defs = append(defs, p.Templates[i].ToDefinition())
	}
	return defs
}

// ToDefinition converts the file form into an engine definition. Derived
// variables and parts are numbered from 1 in slice order, as are validation
// rule positions.
func (t *TemplateFile) ToDefinition() *engine.Definition {
	version := t.Version
	if version == 0 {
		version = 1
	}

	def := &engine.Definition{
		Template: engine.Template{
			Code:               t.Code,
			Name:               t.Name,
			Category:           t.Category,
			Description:        t.Description,
			Version:            version,
			BaseThickness:      t.BaseThickness,
			BackPanelThickness: t.BackPanelThickness,
			PlinthHeight:       t.PlinthHeight,
		},
		Params:          make([]engine.Param, 0, len(t.Params)),
		DerivedVars:     make([]engine.DerivedVar, 0, len(t.DerivedVars)),
		PartRules:       make([]engine.PartRule, 0, len(t.Parts)),
		ValidationRules: make([]engine.ValidationRule, 0, len(t.Validations)),
	}

	for _, p := range t.Params {
		def.Params = append(def.Params, engine.Param{
			Name:     p.Name,
			Default:  p.Default,
			Min:      p.Min,
			Max:      p.Max,
			Required: p.Required,
			Label:    p.Label,
			HelpText: p.Help,
		})
	}

	for i, d := range t.DerivedVars {
		def.DerivedVars = append(def.DerivedVars, engine.DerivedVar{
			Name:    d.Name,
			Formula: d.Formula,
			Order:   i + 1,
		})
	}

	for i, p := range t.Parts {
		def.PartRules = append(def.PartRules, engine.PartRule{
			PartName:       p.Name,
			PartType:       p.Type,
			WidthExpr:      p.Width,
			HeightExpr:     p.Height,
			ThicknessExpr:  p.Thickness,
			QtyExpr:        p.Qty,
			MaterialType:   p.Material,
			EdgeBanding:    p.EdgeBanding,
			GrainDirection: p.Grain,
			Order:          i + 1,
		})
	}

	for i, v := range t.Validations {
		def.ValidationRules = append(def.ValidationRules, engine.ValidationRule{
			Condition: v.Condition,
			Message:   v.Message,
			Position:  i + 1,
		})
	}

	return def
}
