package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Vars is the variable context of one generation: a mapping from identifier
// to value that grows monotonically through the pipeline. Each generation
// owns its own Vars; they are never shared.
type Vars map[string]float64

// BuildContext seeds the dimensions of item and the material constants of
// tmpl. Missing dimensions are zero; missing constants take their defaults.
func BuildContext(tmpl Template, item QuoteItem) Vars {
	return Vars{
		VarWidth:              valueOr(item.Width, 0),
		VarHeight:             valueOr(item.Height, 0),
		VarDepth:              valueOr(item.Depth, 0),
		VarThickness:          valueOr(tmpl.BaseThickness, DefaultBaseThickness),
		VarBackPanelThickness: valueOr(tmpl.BackPanelThickness, DefaultBackPanelThickness),
		VarPlinthHeight:       valueOr(tmpl.PlinthHeight, DefaultPlinthHeight),
	}
}

// SeedParams inserts the default of every param that has one. Params are
// applied in slice order, so a param named like a base variable replaces it.
func (v Vars) SeedParams(params []Param) {
	for _, p := range params {
		if p.Default == nil {
			continue
		}
		v[p.Name] = *p.Default
	}
}

// ApplyOverrides parses payload as a JSON object and sets every numeric entry.
// Non-numeric entries are ignored and a blank payload is a no-op. Names need
// not correspond to declared params.
func (v Vars) ApplyOverrides(payload string) error {
	overrides, err := ParseOverrides(payload)
	if err != nil {
		return err
	}
	for name, value := range overrides {
		v[name] = value
	}
	return nil
}

// ParseOverrides returns the numeric entries of an override payload.
func ParseOverrides(payload string) (map[string]float64, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse overrides: %w", err)
	}

	out := make(map[string]float64, len(raw))
	for name, value := range raw {
		if f, ok := value.(float64); ok {
			out[name] = f
		}
	}
	return out, nil
}

// Clone returns an independent copy of v.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func valueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
