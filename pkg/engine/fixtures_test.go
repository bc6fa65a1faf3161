package engine

func kitchenBaseDefinition() Definition {
	return Definition{
		Template: Template{
			ID:                 "tmpl-kitchen-base",
			Code:               "KITCHEN_BASE",
			Name:               "Kitchen Base Cabinet",
			Category:           "Kitchen",
			Version:            1,
			BaseThickness:      Float(18),
			BackPanelThickness: Float(6),
			PlinthHeight:       Float(100),
		},
		Params: []Param{
			{Name: "DOOR_COUNT", Default: Float(1), Min: Float(1), Max: Float(2), Required: true},
			{Name: "SHELF_COUNT", Default: Float(1), Min: Float(0), Max: Float(5)},
		},
		DerivedVars: []DerivedVar{
			{Name: "INTERNAL_W", Formula: "W - 2*T", Order: 1},
			{Name: "INTERNAL_D", Formula: "D - T", Order: 2},
			{Name: "OPEN_H", Formula: "H - PLINTH - T", Order: 3},
		},
		ValidationRules: []ValidationRule{
			{Condition: "DOOR_COUNT >= 1 && DOOR_COUNT <= 2", Message: "Door count must be 1 or 2", Position: 1},
			{Condition: "W > 0 && H > 0 && D > 0", Message: "Dimensions must be positive", Position: 2},
		},
		PartRules: []PartRule{
			{PartName: "Side Panel", PartType: PartTypeCarcass, WidthExpr: "D", HeightExpr: "H", ThicknessExpr: "T", QtyExpr: "2", MaterialType: "18mm Plywood", EdgeBanding: "FRONT_ONLY", GrainDirection: "VERTICAL", Order: 1},
			{PartName: "Bottom Panel", PartType: PartTypeCarcass, WidthExpr: "INTERNAL_W", HeightExpr: "INTERNAL_D", ThicknessExpr: "T", QtyExpr: "1", MaterialType: "18mm Plywood", EdgeBanding: "FRONT_ONLY", GrainDirection: "HORIZONTAL", Order: 2},
			{PartName: "Top Panel", PartType: PartTypeCarcass, WidthExpr: "INTERNAL_W", HeightExpr: "INTERNAL_D", ThicknessExpr: "T", QtyExpr: "1", MaterialType: "18mm Plywood", EdgeBanding: "FRONT_ONLY", GrainDirection: "HORIZONTAL", Order: 3},
			{PartName: "Shelf", PartType: PartTypeCarcass, WidthExpr: "INTERNAL_W", HeightExpr: "INTERNAL_D", ThicknessExpr: "T", QtyExpr: "SHELF_COUNT", MaterialType: "18mm Plywood", EdgeBanding: "FRONT_ONLY", GrainDirection: "HORIZONTAL", Order: 4},
			{PartName: "Back Panel", PartType: PartTypeBack, WidthExpr: "W", HeightExpr: "H", ThicknessExpr: "BACK_T", QtyExpr: "1", MaterialType: "6mm Back Panel", EdgeBanding: "NONE", GrainDirection: "VERTICAL", Order: 5},
			{PartName: "Shutter", PartType: PartTypeShutter, WidthExpr: "W/DOOR_COUNT", HeightExpr: "OPEN_H", ThicknessExpr: "T", QtyExpr: "DOOR_COUNT", MaterialType: "18mm Plywood", EdgeBanding: "ALL", GrainDirection: "VERTICAL", Order: 6},
		},
	}
}

func kitchenItem(def Definition, overrides string) QuoteItem {
	tmpl := def.Template
	return QuoteItem{
		ID:        "item-1",
		Product:   &Product{ID: "prod-1", Name: "Kitchen Base Cabinet", Template: &tmpl},
		Quantity:  1,
		Width:     Float(600),
		Height:    Float(720),
		Depth:     Float(560),
		Overrides: overrides,
	}
}
