package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage identifies a step of the template execution pipeline.
type Stage string

const (
	// StageResolveTemplate loads the definition snapshot.
	StageResolveTemplate Stage = "resolve_template"

	// StageBuildContext seeds dimensions and material constants.
	StageBuildContext Stage = "build_context"

	// StageSeedParams inserts param defaults.
	StageSeedParams Stage = "seed_params"

	// StageApplyOverrides applies per-item param overrides.
	StageApplyOverrides Stage = "apply_overrides"

	// StageResolveDerivedVars evaluates derived formulas in order.
	StageResolveDerivedVars Stage = "resolve_derived_vars"

	// StageValidate runs the validation rules.
	StageValidate Stage = "validate"

	// StageGenerateParts evaluates part rules into descriptors.
	StageGenerateParts Stage = "generate_parts"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{
	StageResolveTemplate,
	StageBuildContext,
	StageSeedParams,
	StageApplyOverrides,
	StageResolveDerivedVars,
	StageValidate,
	StageGenerateParts,
}

// Validate checks if the stage is valid.
func (s Stage) Validate() error {
	for _, st := range Stages {
		if s == st {
			return nil
		}
	}
	return fmt.Errorf("invalid stage: %s", s)
}

// PricingModel selects how a product's price is computed.
type PricingModel string

const (
	// PricingPerUnit charges rate per unit. It is the fallback for unknown models.
	PricingPerUnit PricingModel = "PER_UNIT"

	// PricingArea charges rate per square millimetre of height by width.
	PricingArea PricingModel = "AREA"

	// PricingVolume charges rate per cubic millimetre.
	PricingVolume PricingModel = "VOLUME"

	// PricingRunningFoot charges rate per millimetre of width.
	PricingRunningFoot PricingModel = "RUNNING_FT"
)

// ParsePricingModel normalises a stored model name. Empty and unknown names
// map to PricingPerUnit.
func ParsePricingModel(s string) PricingModel {
	switch m := PricingModel(strings.ToUpper(strings.TrimSpace(s))); m {
	case PricingArea, PricingVolume, PricingRunningFoot:
		return m
	default:
		return PricingPerUnit
	}
}

// QuotationStatus is the lifecycle state of a quotation.
type QuotationStatus string

const (
	// QuotationDraft quotations accept item changes.
	QuotationDraft QuotationStatus = "DRAFT"

	// QuotationSubmitted quotations are frozen.
	QuotationSubmitted QuotationStatus = "SUBMITTED"
)

// IsDraft reports whether items may still be modified. The comparison is
// case-insensitive.
func (s QuotationStatus) IsDraft() bool {
	return strings.EqualFold(string(s), string(QuotationDraft))
}

// Validate checks if the quotation status is valid.
func (s QuotationStatus) Validate() error {
	switch QuotationStatus(strings.ToUpper(string(s))) {
	case QuotationDraft, QuotationSubmitted:
		return nil
	default:
		return fmt.Errorf("invalid quotation status: %s", s)
	}
}

// Part types used by the builtin templates and the fallback part.
const (
	PartTypeCarcass = "CARCASS"
	PartTypeBack    = "BACK"
	PartTypeShutter = "SHUTTER"
	PartTypeGeneric = "GENERIC"
)

// MarshalJSON implements custom JSON marshaling for type-safe enum serialization.
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements custom JSON unmarshaling with validation.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = Stage(str)
	return s.Validate()
}
