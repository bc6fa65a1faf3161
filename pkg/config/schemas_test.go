package config

import (
	"context"
	"testing"
)

func TestSchemaRegistry_RegisterAndGet(t *testing.T) {
	sr := NewSchemaRegistry()

	customSchema := `
#Material: {
	name:      string
	thickness: number & >0
}
`

	if err := sr.RegisterSchema("material", customSchema, "#Material"); err != nil {
		t.Fatalf("failed to register schema: %v", err)
	}

	schema, ok := sr.GetSchema("material")
	if !ok {
		t.Fatal("expected to find material schema")
	}
	if schema.Err() != nil {
		t.Errorf("schema has errors: %v", schema.Err())
	}

	if err := sr.RegisterSchema("broken", customSchema, "#Missing"); err == nil {
		t.Error("expected error for missing entry definition")
	}
}

func TestSchemaRegistry_ListSchemas(t *testing.T) {
	sr := NewSchemaRegistry()
	names := sr.ListSchemas()
	if len(names) != 1 || names[0] != SchemaTemplate {
		t.Errorf("expected only the built-in template schema, got %v", names)
	}
}

func TestSchemaRegistry_ValidateTemplate(t *testing.T) {
	sr := NewSchemaRegistry()
	ctx := context.Background()

	tests := []struct {
		name    string
		data    TemplateFile
		wantErr bool
	}{
		{
			name: "valid template",
			data: TemplateFile{
				Code:  "BOX",
				Name:  "Box",
				Parts: []PartConfig{{Name: "Panel", Width: "W", Height: "H", Qty: "6"}},
			},
		},
		{
			name: "template without parts",
			data: TemplateFile{Code: "EMPTY", Name: "Empty"},
		},
		{
			name:    "code is not an identifier",
			data:    TemplateFile{Code: "my-box", Name: "Box"},
			wantErr: true,
		},
		{
			name: "non-positive thickness",
			data: TemplateFile{
				Code:          "BOX",
				Name:          "Box",
				BaseThickness: func() *float64 { v := 0.0; return &v }(),
			},
			wantErr: true,
		},
		{
			name: "derived var without formula",
			data: TemplateFile{
				Code:        "BOX",
				Name:        "Box",
				DerivedVars: []DerivedVarConfig{{Name: "X"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sr.ValidateAgainstSchema(ctx, SchemaTemplate, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAgainstSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
