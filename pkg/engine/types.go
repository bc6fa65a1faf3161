package engine

// Material constant fallbacks, in millimetres, used when a template leaves
// the corresponding field unset.
const (
	DefaultBaseThickness      = 18.0
	DefaultBackPanelThickness = 6.0
	DefaultPlinthHeight       = 100.0
)

// Names of the variables seeded into every context before params.
const (
	VarWidth              = "W"
	VarHeight             = "H"
	VarDepth              = "D"
	VarThickness          = "T"
	VarBackPanelThickness = "BACK_T"
	VarPlinthHeight       = "PLINTH"
)

// Template is a named, versioned parametric furniture module.
type Template struct {
	// ID is the storage identifier.
	ID string `json:"id"`

	// Code is the unique human key (e.g., "KITCHEN_BASE").
	Code string `json:"code"`

	// Name is the display name.
	Name string `json:"name"`

	// Category groups templates (Kitchen, Wardrobe, ...).
	Category string `json:"category,omitempty"`

	// Description is free text.
	Description string `json:"description,omitempty"`

	// Version is incremented by authors when rules change.
	Version int `json:"version"`

	// BaseThickness seeds T. Nil means DefaultBaseThickness.
	BaseThickness *float64 `json:"base_thickness,omitempty"`

	// BackPanelThickness seeds BACK_T. Nil means DefaultBackPanelThickness.
	BackPanelThickness *float64 `json:"back_panel_thickness,omitempty"`

	// PlinthHeight seeds PLINTH. Nil means DefaultPlinthHeight.
	PlinthHeight *float64 `json:"plinth_height,omitempty"`
}

// Param is a user-adjustable numeric input of a template.
// Min and Max are advisory and never enforced during generation.
type Param struct {
	Name     string   `json:"name"`
	Default  *float64 `json:"default,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Required bool     `json:"required"`
	Label    string   `json:"label,omitempty"`
	HelpText string   `json:"help_text,omitempty"`
}

// DerivedVar is a formula-computed variable. Order, not declaration order,
// decides when it is evaluated.
type DerivedVar struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
	Order   int    `json:"order"`
}

// PartRule is the formula set that produces one kind of part.
type PartRule struct {
	PartName string `json:"part_name"`
	PartType string `json:"part_type"`

	WidthExpr  string `json:"width_expr"`
	HeightExpr string `json:"height_expr"`

	// ThicknessExpr is optional; blank means "use T".
	ThicknessExpr string `json:"thickness_expr,omitempty"`

	QtyExpr string `json:"qty_expr"`

	MaterialType   string `json:"material_type,omitempty"`
	EdgeBanding    string `json:"edge_banding,omitempty"`
	GrainDirection string `json:"grain_direction,omitempty"`

	Order int `json:"order"`
}

// ValidationRule is a boolean guard that must hold before parts are generated.
// Rules run in ascending Position, which storage assigns in insertion order.
type ValidationRule struct {
	Condition string `json:"condition"`
	Message   string `json:"message"`
	Position  int    `json:"position"`
}

// Definition is an immutable snapshot of everything needed to run one template.
type Definition struct {
	Template        Template         `json:"template"`
	Params          []Param          `json:"params"`
	DerivedVars     []DerivedVar     `json:"derived_vars"`
	PartRules       []PartRule       `json:"part_rules"`
	ValidationRules []ValidationRule `json:"validation_rules"`
}

// Product is a sellable catalogue item, optionally backed by a template.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category,omitempty"`
	PricingModel string    `json:"pricing_model,omitempty"`
	UnitRate     *float64  `json:"unit_rate,omitempty"`
	Description  string    `json:"description,omitempty"`
	Template     *Template `json:"template,omitempty"`
}

// QuoteItem is one product instance on a quotation.
type QuoteItem struct {
	ID          string   `json:"id"`
	QuotationID string   `json:"quotation_id"`
	Product     *Product `json:"product,omitempty"`
	Quantity    int      `json:"quantity"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
	Notes       string   `json:"notes,omitempty"`

	// Overrides is a JSON object of param name to numeric value, e.g.
	// {"SHELF_COUNT": 3}. Non-numeric entries are ignored.
	Overrides string `json:"overrides,omitempty"`

	ComputedPrice float64 `json:"computed_price"`
}

// PartDescriptor is one generated, dimensioned, quantified part.
type PartDescriptor struct {
	PartName       string  `json:"part_name"`
	PartType       string  `json:"part_type"`
	Width          float64 `json:"cut_width"`
	Height         float64 `json:"cut_height"`
	Thickness      float64 `json:"thickness"`
	Quantity       int     `json:"quantity"`
	MaterialType   string  `json:"material_type,omitempty"`
	EdgeBanding    string  `json:"edge_banding,omitempty"`
	GrainDirection string  `json:"grain_direction,omitempty"`
}

// Outcome distinguishes the non-error results of a generation.
type Outcome string

const (
	// OutcomeNoTemplate means the product has no template; the caller
	// falls back to its own default behaviour.
	OutcomeNoTemplate Outcome = "no_template"

	// OutcomeGenerated means the template ran and Parts holds the cutlist.
	OutcomeGenerated Outcome = "generated"
)

// Result is the successful result of one generation.
type Result struct {
	Outcome Outcome          `json:"outcome"`
	Parts   []PartDescriptor `json:"parts"`
}

// TemplateOf returns the template assigned to the item's product, or nil.
func (q *QuoteItem) TemplateOf() *Template {
	if q == nil || q.Product == nil {
		return nil
	}
	return q.Product.Template
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
