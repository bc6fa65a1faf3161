package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openjoinery/joinery/pkg/engine"
)

const openShelfCUE = `
templates: OPEN_SHELF: {
	name:           "Open Shelf Unit"
	category:       "Living"
	base_thickness: 16

	params: [{name: "SHELF_COUNT", default: 3, min: 1, max: 8, label: "Shelves"}]
	derived_vars: [{name: "INTERNAL_W", formula: "W - 2*T"}]
	validations: [{condition: "W > 0", message: "Width must be positive"}]
	parts: [
		{name: "Side", type: "CARCASS", width: "D", height: "H", qty: "2"},
		{name: "Shelf", type: "CARCASS", width: "INTERNAL_W", height: "D", thickness: "T", qty: "SHELF_COUNT", grain: "HORIZONTAL"},
	]
}
`

func TestTemplateParser_ParseInline(t *testing.T) {
	parser := NewTemplateParser()
	ctx := context.Background()

	tests := []struct {
		name      string
		content   string
		errCount  int
		checkFunc func(*testing.T, *ParsedTemplates)
	}{
		{
			name:    "valid template",
			content: openShelfCUE,
			checkFunc: func(t *testing.T, pt *ParsedTemplates) {
				if len(pt.Templates) != 1 {
					t.Fatalf("expected 1 template, got %d", len(pt.Templates))
				}
				tmpl := pt.Templates[0]
				if tmpl.Code != "OPEN_SHELF" {
					t.Errorf("expected code from key, got %q", tmpl.Code)
				}
				if tmpl.Version != 1 {
					t.Errorf("expected default version 1, got %d", tmpl.Version)
				}
				if tmpl.BaseThickness == nil || *tmpl.BaseThickness != 16 {
					t.Errorf("expected base thickness 16, got %v", tmpl.BaseThickness)
				}
				if tmpl.BackPanelThickness != nil {
					t.Errorf("expected unset back panel thickness")
				}
			},
		},
		{
			name: "invalid CUE syntax",
			content: `
templates: X: {
	name: "broken"
`,
			errCount: 1,
		},
		{
			name:     "no templates map",
			content:  `other: 1`,
			errCount: 1,
		},
		{
			name: "missing part formula",
			content: `
templates: X: {
	name: "Missing qty"
	parts: [{name: "Side", width: "D", height: "H"}]
}
`,
			errCount: 1,
		},
		{
			name: "unknown field rejected",
			content: `
templates: X: {
	name: "Typo"
	part: []
}
`,
			errCount: 1,
		},
		{
			name: "code disagrees with key",
			content: `
templates: X: {
	code: "Y"
	name: "Mismatch"
}
`,
			errCount: 1,
		},
		{
			name: "invalid identifier",
			content: `
templates: X: {
	name: "Bad param"
	params: [{name: "2FAST"}]
}
`,
			errCount: 1,
		},
		{
			name: "one bad template does not hide a good one",
			content: openShelfCUE + `
templates: BROKEN: {
	name: ""
}
`,
			errCount: 1,
			checkFunc: func(t *testing.T, pt *ParsedTemplates) {
				if len(pt.Templates) != 1 || pt.Templates[0].Code != "OPEN_SHELF" {
					t.Errorf("expected OPEN_SHELF to survive, got %+v", pt.Templates)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := parser.ParseInline(ctx, tt.content)

			if tt.errCount == 0 && pt.HasErrors() {
				t.Fatalf("unexpected errors: %v", pt.Errors)
			}
			if tt.errCount > 0 && len(pt.Errors) < tt.errCount {
				t.Errorf("expected at least %d errors, got %d", tt.errCount, len(pt.Errors))
			}

			if tt.checkFunc != nil {
				tt.checkFunc(t, pt)
			}
		})
	}
}

func TestTemplateFile_ToDefinition(t *testing.T) {
	pt := NewTemplateParser().ParseInline(context.Background(), openShelfCUE)
	if pt.HasErrors() {
		t.Fatalf("unexpected errors: %v", pt.Errors)
	}

	got := pt.Definitions()[0]
	want := &engine.Definition{
		Template: engine.Template{
			Code:          "OPEN_SHELF",
			Name:          "Open Shelf Unit",
			Category:      "Living",
			Version:       1,
			BaseThickness: engine.Float(16),
		},
		Params: []engine.Param{
			{Name: "SHELF_COUNT", Default: engine.Float(3), Min: engine.Float(1), Max: engine.Float(8), Label: "Shelves"},
		},
		DerivedVars: []engine.DerivedVar{
			{Name: "INTERNAL_W", Formula: "W - 2*T", Order: 1},
		},
		PartRules: []engine.PartRule{
			{PartName: "Side", PartType: "CARCASS", WidthExpr: "D", HeightExpr: "H", QtyExpr: "2", Order: 1},
			{PartName: "Shelf", PartType: "CARCASS", WidthExpr: "INTERNAL_W", HeightExpr: "D", ThicknessExpr: "T", QtyExpr: "SHELF_COUNT", GrainDirection: "HORIZONTAL", Order: 2},
		},
		ValidationRules: []engine.ValidationRule{
			{Condition: "W > 0", Message: "Width must be positive", Position: 1},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("definition mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateParser_YAML(t *testing.T) {
	parser := NewTemplateParser()
	ctx := context.Background()

	content := `
templates:
  OPEN_SHELF:
    name: Open Shelf Unit
    params:
      - name: SHELF_COUNT
        default: 3
    parts:
      - name: Side
        width: D
        height: H
        qty: "2"
      - name: Shelf
        width: W - 2*T
        height: D
        qty: SHELF_COUNT
  BAD:
    code: NOT_BAD
    name: Mismatched
`

	pt := parser.ParseBytes(ctx, "shelves.yaml", []byte(content))
	if len(pt.Errors) != 1 {
		t.Fatalf("expected 1 error for mismatched code, got %v", pt.Errors)
	}
	if !strings.Contains(pt.Errors[0].Path, "BAD") {
		t.Errorf("error path should name the template, got %q", pt.Errors[0].Path)
	}

	if len(pt.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(pt.Templates))
	}
	def := pt.Templates[0].ToDefinition()
	if def.Template.Code != "OPEN_SHELF" || len(def.PartRules) != 2 {
		t.Errorf("unexpected definition: %+v", def)
	}
	if def.PartRules[1].QtyExpr != "SHELF_COUNT" {
		t.Errorf("expected qty SHELF_COUNT, got %q", def.PartRules[1].QtyExpr)
	}
}

func TestTemplateParser_YAMLSchemaViolation(t *testing.T) {
	content := `
templates:
  X:
    name: Bad param
    params:
      - name: has space
`
	pt := NewTemplateParser().ParseBytes(context.Background(), "bad.yml", []byte(content))
	if !pt.HasErrors() {
		t.Fatal("expected schema violation for invalid parameter name")
	}
}

func TestTemplateParser_ParseDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"shelf.cue":          openShelfCUE,
		"nested/box.yaml":    "templates:\n  BOX:\n    name: Box\n    parts:\n      - {name: Panel, width: W, height: H, qty: \"6\"}\n",
		"nested/readme.txt":  "not a template",
		"dup/duplicate.yaml": "templates:\n  OPEN_SHELF:\n    name: Again\n",
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	pt, err := NewTemplateParser().Parse(context.Background(), []string{tmpDir})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(pt.SourceFiles) != 3 {
		t.Errorf("expected 3 source files, got %v", pt.SourceFiles)
	}
	if len(pt.Templates) != 2 {
		t.Errorf("expected 2 templates, got %d", len(pt.Templates))
	}
	if len(pt.Errors) != 1 || pt.Errors[0].Message != "duplicate template code" {
		t.Errorf("expected one duplicate error, got %v", pt.Errors)
	}
}

func TestTemplateParser_LoadDefinitions(t *testing.T) {
	tmpDir := t.TempDir()
	good := filepath.Join(tmpDir, "good.cue")
	if err := os.WriteFile(good, []byte(openShelfCUE), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	parser := NewTemplateParser()
	ctx := context.Background()

	defs, err := parser.LoadDefinitions(ctx, []string{good})
	if err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}

	bad := filepath.Join(tmpDir, "bad.cue")
	if err := os.WriteFile(bad, []byte("templates: X: {}"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := parser.LoadDefinitions(ctx, []string{bad}); err == nil {
		t.Error("expected error for template without name")
	}

	if _, err := parser.Parse(ctx, []string{filepath.Join(tmpDir, "missing.cue")}); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Message: "boom"}, "boom"},
		{ValidationError{File: "a.cue", Line: 3, Column: 7, Message: "boom"}, "a.cue:3:7: boom"},
		{ValidationError{File: "a.cue", Path: "templates.X", Message: "boom"}, "a.cue templates.X: boom"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
