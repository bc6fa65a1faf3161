package quote

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/openjoinery/joinery/pkg/engine"
)

func TestSummarize(t *testing.T) {
	parts := []engine.PartDescriptor{
		{PartName: "Top", Width: 1000, Height: 1000, Thickness: 18, Quantity: 2, MaterialType: "A"},
		{PartName: "Back", Width: 500, Height: 500, Thickness: 6, Quantity: 1, MaterialType: "B"},
	}

	got := Summarize(parts, DefaultSheetWidth, DefaultSheetHeight)

	want := MaterialSummary{
		Pieces:         3,
		TotalArea:      2250000,
		SheetWidth:     2440,
		SheetHeight:    1220,
		SheetArea:      2976800,
		Sheets:         1,
		WastagePercent: 24.4154,
		Materials: []MaterialUsage{
			{Material: "A", Thickness: 18, Pieces: 2, Area: 2000000, Sheets: 1, WastagePercent: 32.8135},
			{Material: "B", Thickness: 6, Pieces: 1, Area: 250000, Sheets: 1, WastagePercent: 91.6017},
		},
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 0.001)); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeEdgeCases(t *testing.T) {
	tests := []struct {
		name       string
		parts      []engine.PartDescriptor
		sheetW     float64
		sheetH     float64
		wantSheets int
		wantWaste  float64
	}{
		{name: "empty cutlist", sheetW: 2440, sheetH: 1220},
		{
			name:       "exactly one sheet",
			parts:      []engine.PartDescriptor{{Width: 2440, Height: 1220, Quantity: 1}},
			sheetW:     2440,
			sheetH:     1220,
			wantSheets: 1,
		},
		{
			name:       "just over one sheet",
			parts:      []engine.PartDescriptor{{Width: 2440, Height: 1220, Quantity: 1}, {Width: 10, Height: 10, Quantity: 1}},
			sheetW:     2440,
			sheetH:     1220,
			wantSheets: 2,
			wantWaste:  (2976800 - 100) / (2 * 2976800.0) * 100,
		},
		{
			name:   "no sheet size",
			parts:  []engine.PartDescriptor{{Width: 100, Height: 100, Quantity: 1}},
			sheetW: 0,
			sheetH: 1220,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.parts, tt.sheetW, tt.sheetH)
			if got.Sheets != tt.wantSheets {
				t.Errorf("Sheets = %d, want %d", got.Sheets, tt.wantSheets)
			}
			if math.Abs(got.WastagePercent-tt.wantWaste) > 1e-9 {
				t.Errorf("WastagePercent = %v, want %v", got.WastagePercent, tt.wantWaste)
			}
			if got.Materials == nil {
				t.Error("Materials should be empty, not nil")
			}
		})
	}
}

func TestServiceSummary(t *testing.T) {
	svc, _ := setupTestService(t, DefaultConfig())
	ctx := context.Background()
	qid := newQuotation(t, svc)

	addItem(t, svc, qid, kitchenBase())
	addItem(t, svc, qid, vanity())

	if _, err := svc.GenerateCutlist(ctx, qid); err != nil {
		t.Fatalf("GenerateCutlist() error = %v", err)
	}

	summary, err := svc.Summary(ctx, qid)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	// Six plywood pieces, one back panel and the vanity's generic part.
	if summary.Pieces != 8 {
		t.Errorf("Pieces = %d, want 8", summary.Pieces)
	}
	if summary.TotalArea != 2996664 {
		t.Errorf("TotalArea = %v, want 2996664", summary.TotalArea)
	}
	if summary.Sheets != 2 {
		t.Errorf("Sheets = %d, want 2", summary.Sheets)
	}

	var materials []string
	for _, m := range summary.Materials {
		materials = append(materials, m.Material)
	}
	if diff := cmp.Diff([]string{"", "18mm Plywood", "6mm Back Panel"}, materials); diff != "" {
		t.Errorf("materials mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.Summary(ctx, "missing"); err == nil {
		t.Error("expected error for unknown quotation")
	}
}
