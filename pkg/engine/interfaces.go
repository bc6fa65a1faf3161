package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// TemplateDefinitionProvider supplies the rule lists of a template.
// Implementations return each list already ordered: params by name, derived
// variables and part rules by order, validation rules by position.
type TemplateDefinitionProvider interface {
	// Params returns the template's parameters ordered by name.
	Params(ctx context.Context, templateID string) ([]Param, error)

	// DerivedVars returns the derived variables in ascending order.
	DerivedVars(ctx context.Context, templateID string) ([]DerivedVar, error)

	// PartRules returns the part rules in ascending order.
	PartRules(ctx context.Context, templateID string) ([]PartRule, error)

	// ValidationRules returns the validation rules in ascending position.
	ValidationRules(ctx context.Context, templateID string) ([]ValidationRule, error)
}

// MetricsRecorder receives generation measurements.
type MetricsRecorder interface {
	// RecordGeneration records one finished generation.
	RecordGeneration(templateCode string, outcome string, duration time.Duration, parts int)

	// RecordGenerationError records a failed generation by kind and stage.
	RecordGenerationError(templateCode string, kind string, stage string)
}

// LoadDefinition fetches the full snapshot of tmpl from p.
func LoadDefinition(ctx context.Context, p TemplateDefinitionProvider, tmpl Template) (*Definition, error) {
	params, err := p.Params(ctx, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load params: %w", err)
	}
	derived, err := p.DerivedVars(ctx, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load derived vars: %w", err)
	}
	parts, err := p.PartRules(ctx, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load part rules: %w", err)
	}
	rules, err := p.ValidationRules(ctx, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation rules: %w", err)
	}

	return &Definition{
		Template:        tmpl,
		Params:          params,
		DerivedVars:     derived,
		PartRules:       parts,
		ValidationRules: rules,
	}, nil
}

// StaticProvider is an in-memory TemplateDefinitionProvider keyed by template ID.
// It is safe for concurrent use.
type StaticProvider struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewStaticProvider creates a provider holding the given definitions.
func NewStaticProvider(defs ...Definition) *StaticProvider {
	p := &StaticProvider{defs: make(map[string]Definition)}
	for _, d := range defs {
		p.Add(d)
	}
	return p
}

// Add registers def under its template ID, replacing any previous entry.
// The rule lists are copied and sorted into provider order.
func (p *StaticProvider) Add(def Definition) {
	def.Sort()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defs[def.Template.ID] = def
}

func (p *StaticProvider) get(templateID string) (Definition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	def, ok := p.defs[templateID]
	if !ok {
		return Definition{}, fmt.Errorf("template %q not found", templateID)
	}
	return def, nil
}

// Params implements TemplateDefinitionProvider.
func (p *StaticProvider) Params(_ context.Context, templateID string) ([]Param, error) {
	def, err := p.get(templateID)
	if err != nil {
		return nil, err
	}
	return def.Params, nil
}

// DerivedVars implements TemplateDefinitionProvider.
func (p *StaticProvider) DerivedVars(_ context.Context, templateID string) ([]DerivedVar, error) {
	def, err := p.get(templateID)
	if err != nil {
		return nil, err
	}
	return def.DerivedVars, nil
}

// PartRules implements TemplateDefinitionProvider.
func (p *StaticProvider) PartRules(_ context.Context, templateID string) ([]PartRule, error) {
	def, err := p.get(templateID)
	if err != nil {
		return nil, err
	}
	return def.PartRules, nil
}

// ValidationRules implements TemplateDefinitionProvider.
func (p *StaticProvider) ValidationRules(_ context.Context, templateID string) ([]ValidationRule, error) {
	def, err := p.get(templateID)
	if err != nil {
		return nil, err
	}
	return def.ValidationRules, nil
}

// Sort copies the rule lists of d and orders them the way providers must:
// params by name, derived variables and part rules by order, validation
// rules by position. Ties keep their existing relative order.
func (d *Definition) Sort() {
	d.Params = append([]Param(nil), d.Params...)
	d.DerivedVars = append([]DerivedVar(nil), d.DerivedVars...)
	d.PartRules = append([]PartRule(nil), d.PartRules...)
	d.ValidationRules = append([]ValidationRule(nil), d.ValidationRules...)

	sort.SliceStable(d.Params, func(i, j int) bool {
		return d.Params[i].Name < d.Params[j].Name
	})
	sort.SliceStable(d.DerivedVars, func(i, j int) bool {
		return d.DerivedVars[i].Order < d.DerivedVars[j].Order
	})
	sort.SliceStable(d.PartRules, func(i, j int) bool {
		return d.PartRules[i].Order < d.PartRules[j].Order
	})
	sort.SliceStable(d.ValidationRules, func(i, j int) bool {
		return d.ValidationRules[i].Position < d.ValidationRules[j].Position
	})
}
