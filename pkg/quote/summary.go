package quote

import (
	"context"
	"math"
	"sort"

	"github.com/openjoinery/joinery/pkg/engine"
)

// MaterialSummary is a raw area tally of a cutlist against a stock sheet.
// It does not nest parts; Sheets is only the area lower bound.
type MaterialSummary struct {
	// Pieces is the total part quantity.
	Pieces int `json:"pieces"`

	// TotalArea is the sum of width * height * quantity in mm².
	TotalArea float64 `json:"total_area"`

	SheetWidth  float64 `json:"sheet_width"`
	SheetHeight float64 `json:"sheet_height"`
	SheetArea   float64 `json:"sheet_area"`

	// Sheets is ceil(TotalArea / SheetArea).
	Sheets int `json:"sheets"`

	// WastagePercent is the unused share of the sheets bought.
	WastagePercent float64 `json:"wastage_percent"`

	// Materials breaks the tally down by material and thickness.
	Materials []MaterialUsage `json:"materials"`
}

// MaterialUsage is the tally for one material and thickness.
type MaterialUsage struct {
	Material       string  `json:"material"`
	Thickness      float64 `json:"thickness"`
	Pieces         int     `json:"pieces"`
	Area           float64 `json:"area"`
	Sheets         int     `json:"sheets"`
	WastagePercent float64 `json:"wastage_percent"`
}

// Summarize tallies parts against a sheetWidth x sheetHeight board.
func Summarize(parts []engine.PartDescriptor, sheetWidth, sheetHeight float64) MaterialSummary {
	sheetArea := sheetWidth * sheetHeight
	summary := MaterialSummary{
		SheetWidth:  sheetWidth,
		SheetHeight: sheetHeight,
		SheetArea:   sheetArea,
		Materials:   []MaterialUsage{},
	}

	type key struct {
		material  string
		thickness float64
	}
	byMaterial := make(map[key]*MaterialUsage)

	for _, p := range parts {
		area := p.Width * p.Height * float64(p.Quantity)
		summary.Pieces += p.Quantity
		summary.TotalArea += area

		k := key{p.MaterialType, p.Thickness}
		u, ok := byMaterial[k]
		if !ok {
			u = &MaterialUsage{Material: p.MaterialType, Thickness: p.Thickness}
			byMaterial[k] = u
		}
		u.Pieces += p.Quantity
		u.Area += area
	}

	summary.Sheets, summary.WastagePercent = sheetsFor(summary.TotalArea, sheetArea)

	for _, u := range byMaterial {
		u.Sheets, u.WastagePercent = sheetsFor(u.Area, sheetArea)
		summary.Materials = append(summary.Materials, *u)
	}
	sort.Slice(summary.Materials, func(i, j int) bool {
		a, b := summary.Materials[i], summary.Materials[j]
		if a.Material != b.Material {
			return a.Material < b.Material
		}
		return a.Thickness < b.Thickness
	})

	return summary
}

func sheetsFor(area, sheetArea float64) (int, float64) {
	if sheetArea <= 0 || area <= 0 {
		return 0, 0
	}
	sheets := int(math.Ceil(area / sheetArea))
	bought := float64(sheets) * sheetArea
	return sheets, (bought - area) / bought * 100
}

// Summary tallies the stored cutlist of a quotation against the configured
// sheet size.
func (s *Service) Summary(ctx context.Context, quotationID string) (*MaterialSummary, error) {
	if _, err := s.store.GetQuotation(ctx, quotationID); err != nil {
		return nil, err
	}
	cutlist, err := s.store.ListCutlist(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	parts := make([]engine.PartDescriptor, 0, len(cutlist))
	for _, c := range cutlist {
		parts = append(parts, c.PartDescriptor)
	}

	summary := Summarize(parts, s.config.SheetWidth, s.config.SheetHeight)
	return &summary, nil
}
