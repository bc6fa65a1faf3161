package engine

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildContext(t *testing.T) {
	tests := []struct {
		name string
		tmpl Template
		item QuoteItem
		want Vars
	}{
		{
			name: "all values present",
			tmpl: Template{BaseThickness: Float(16), BackPanelThickness: Float(4), PlinthHeight: Float(80)},
			item: QuoteItem{Width: Float(900), Height: Float(2100), Depth: Float(600)},
			want: Vars{"W": 900, "H": 2100, "D": 600, "T": 16, "BACK_T": 4, "PLINTH": 80},
		},
		{
			name: "defaults",
			tmpl: Template{},
			item: QuoteItem{},
			want: Vars{"W": 0, "H": 0, "D": 0, "T": 18, "BACK_T": 6, "PLINTH": 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildContext(tt.tmpl, tt.item)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildContext mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSeedParams(t *testing.T) {
	vars := Vars{"W": 600}
	vars.SeedParams([]Param{
		{Name: "DOOR_COUNT", Default: Float(1)},
		{Name: "DRAWERS"},
		{Name: "W", Default: Float(450)},
	})

	want := Vars{"W": 450, "DOOR_COUNT": 1}
	if diff := cmp.Diff(want, vars); diff != "" {
		t.Errorf("SeedParams mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOverrides(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    map[string]float64
		wantErr bool
	}{
		{name: "empty", payload: "", want: nil},
		{name: "null literal", payload: "null", want: map[string]float64{}},
		{name: "numbers", payload: `{"A": 1, "B": 2.5, "C": -3}`, want: map[string]float64{"A": 1, "B": 2.5, "C": -3}},
		{name: "mixed", payload: `{"A": 1, "B": "2", "C": [3], "D": {"x": 1}}`, want: map[string]float64{"A": 1}},
		{name: "truncated", payload: `{"A": `, wantErr: true},
		{name: "string", payload: `"A"`, wantErr: true},
		{name: "number", payload: `4`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOverrides(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOverrides(%q) error = %v, wantErr %v", tt.payload, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseOverrides mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerationErrorMessage(t *testing.T) {
	err := NewValidationError(ValidationRule{Condition: "SPLIT_COUNT == 2", Message: "This template supports 2 splits only"})
	if !strings.HasSuffix(err.Error(), ": This template supports 2 splits only") {
		t.Errorf("validation error should end with the rule message, got %q", err.Error())
	}

	def := Definition{Template: Template{ID: "t"}, DerivedVars: []DerivedVar{{Name: "X", Formula: "1/0"}}}
	_, execErr := Execute(&def, QuoteItem{})
	if execErr == nil || !strings.Contains(execErr.Error(), `"X"`) {
		t.Errorf("derived error should name the variable, got %v", execErr)
	}
}
