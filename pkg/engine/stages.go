package engine

import (
	"math"
	"strings"

	"github.com/openjoinery/joinery/pkg/expr"
)

// ResolveDerivedVars evaluates each derived formula in slice order and inserts
// the result before the next one runs. A formula may therefore reference any
// earlier derived variable; a reference to a later one is unresolved.
func (v Vars) ResolveDerivedVars(derived []DerivedVar) error {
	for _, d := range derived {
		value, err := expr.EvaluateNumeric(d.Formula, v)
		if err != nil {
			return newStageError(StageResolveDerivedVars, d.Name, "failed to evaluate derived variable", err)
		}
		v[d.Name] = value
	}
	return nil
}

// Validate evaluates the rules in slice order and fails at the first one that
// does not hold. The context is not modified.
func (v Vars) Validate(rules []ValidationRule) error {
	for _, rule := range rules {
		ok, err := expr.EvaluateBoolean(rule.Condition, v)
		if err != nil {
			return newStageError(StageValidate, rule.Condition, "failed to evaluate validation rule", err)
		}
		if !ok {
			return NewValidationError(rule)
		}
	}
	return nil
}

// GenerateParts evaluates every part rule into a descriptor. Rules whose
// quantity truncates to zero or less are dropped; the rest keep rule order.
func (v Vars) GenerateParts(rules []PartRule) ([]PartDescriptor, error) {
	parts := make([]PartDescriptor, 0, len(rules))
	for _, rule := range rules {
		part, keep, err := v.generatePart(rule)
		if err != nil {
			return nil, err
		}
		if keep {
			parts = append(parts, part)
		}
	}
	return parts, nil
}

func (v Vars) generatePart(rule PartRule) (PartDescriptor, bool, error) {
	eval := func(field, formula string) (float64, error) {
		value, err := expr.EvaluateNumeric(formula, v)
		if err != nil {
			return 0, newStageError(StageGenerateParts, rule.PartName, "failed to evaluate "+field, err)
		}
		return value, nil
	}

	width, err := eval("width", rule.WidthExpr)
	if err != nil {
		return PartDescriptor{}, false, err
	}
	height, err := eval("height", rule.HeightExpr)
	if err != nil {
		return PartDescriptor{}, false, err
	}

	thickness := v[VarThickness]
	if strings.TrimSpace(rule.ThicknessExpr) != "" {
		if thickness, err = eval("thickness", rule.ThicknessExpr); err != nil {
			return PartDescriptor{}, false, err
		}
	}

	rawQty, err := eval("quantity", rule.QtyExpr)
	if err != nil {
		return PartDescriptor{}, false, err
	}
	qty := truncateQuantity(rawQty)
	if qty <= 0 {
		return PartDescriptor{}, false, nil
	}

	return PartDescriptor{
		PartName:       rule.PartName,
		PartType:       rule.PartType,
		Width:          width,
		Height:         height,
		Thickness:      thickness,
		Quantity:       qty,
		MaterialType:   rule.MaterialType,
		EdgeBanding:    rule.EdgeBanding,
		GrainDirection: rule.GrainDirection,
	}, true, nil
}

// truncateQuantity truncates toward zero, saturating at the 32-bit range
// stored quantities use.
func truncateQuantity(q float64) int {
	switch {
	case math.IsNaN(q):
		return 0
	case q >= math.MaxInt32:
		return math.MaxInt32
	case q <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Trunc(q))
}
