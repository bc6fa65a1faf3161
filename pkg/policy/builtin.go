package policy

import (
	"time"
)

// Names of the built-in policies.
const (
	PolicyPartFitsSheet      = "part-fits-sheet"
	PolicyPositiveDimensions = "positive-dimensions"
	PolicyMaterialAssigned   = "material-assigned"
)

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		partFitsSheetPolicy(),
		positiveDimensionsPolicy(),
		materialAssignedPolicy(),
	}
}

// partFitsSheetPolicy rejects parts larger than the stock sheet in both
// orientations.
func partFitsSheetPolicy() Policy {
	return Policy{
		Name:        PolicyPartFitsSheet,
		Description: "Every part must fit the stock sheet, rotated if necessary",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"sheet", "manufacturing"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package joinery.policies.sheet

import rego.v1

deny contains violation if {
	some item in input.items
	some part in item.parts
	not fits(part)
	violation := {
		"message": sprintf("Part '%s' (%v x %v) does not fit a %v x %v sheet", [
			part.part_name, part.cut_width, part.cut_height,
			input.sheet.width, input.sheet.height,
		]),
		"quote_item": item.quote_item_id,
		"part": part.part_name,
	}
}

fits(part) if {
	part.cut_width <= input.sheet.width
	part.cut_height <= input.sheet.height
}

fits(part) if {
	part.cut_height <= input.sheet.width
	part.cut_width <= input.sheet.height
}
`,
	}
}

// positiveDimensionsPolicy rejects parts whose formulas produced zero or
// negative sizes.
func positiveDimensionsPolicy() Policy {
	return Policy{
		Name:        PolicyPositiveDimensions,
		Description: "Part width, height and thickness must be positive",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"dimensions", "manufacturing"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package joinery.policies.dimensions

import rego.v1

dimensions := ["cut_width", "cut_height", "thickness"]

deny contains violation if {
	some item in input.items
	some part in item.parts
	some dim in dimensions
	part[dim] <= 0
	violation := {
		"message": sprintf("Part '%s' has non-positive %s: %v", [part.part_name, dim, part[dim]]),
		"quote_item": item.quote_item_id,
		"part": part.part_name,
	}
}
`,
	}
}

// materialAssignedPolicy flags parts without a material. Fallback parts
// never carry one, so this only warns.
func materialAssignedPolicy() Policy {
	return Policy{
		Name:        PolicyMaterialAssigned,
		Description: "Parts should name the material they are cut from",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"material"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package joinery.policies.material

import rego.v1

deny contains violation if {
	some item in input.items
	some part in item.parts
	object.get(part, "material_type", "") == ""
	violation := {
		"message": sprintf("Part '%s' of %s has no material", [part.part_name, item.product]),
		"quote_item": item.quote_item_id,
		"part": part.part_name,
	}
}
`,
	}
}
