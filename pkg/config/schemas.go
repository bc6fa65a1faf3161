package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaTemplate is the name of the built-in template definition schema.
const SchemaTemplate = "template"

// SchemaRegistry manages CUE schemas for validation. Each schema is a CUE
// definition looked up from a compiled source.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	return newSchemaRegistry(cuecontext.New())
}

func newSchemaRegistry(ctx *cue.Context) *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     ctx,
		schemas: make(map[string]cue.Value),
	}

	if err := sr.RegisterSchema(SchemaTemplate, builtinTemplateSchema, "#Template"); err != nil {
		panic(err)
	}

	return sr
}

// RegisterSchema compiles source and registers the definition named by
// entry (e.g., "#Template") under name.
func (sr *SchemaRegistry) RegisterSchema(name, source, entry string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(source, cue.Filename(name+".cue"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	def := val.LookupPath(cue.ParsePath(entry))
	if !def.Exists() {
		return fmt.Errorf("schema %s has no definition %s", name, entry)
	}

	sr.schemas[name] = def
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// Apply unifies val with the named schema, filling in schema defaults, and
// checks that the result is concrete.
func (sr *SchemaRegistry) Apply(schemaName string, val cue.Value) (cue.Value, error) {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return cue.Value{}, fmt.Errorf("schema %s not found", schemaName)
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, err
	}
	return unified, nil
}

// ValidateAgainstSchema validates Go data against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(_ context.Context, schemaName string, data interface{}) error {
	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	if _, err := sr.Apply(schemaName, dataVal); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// ListSchemas returns all registered schema names, sorted.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Built-in schema definitions

const builtinTemplateSchema = `
#Identifier: =~"^[A-Za-z_][A-Za-z0-9_]*$"
#Formula:    string & !=""

// Template schema for parametric cabinet templates
#Template: {
	// Code is the unique template code
	code: #Identifier

	// Name is the human-readable name
	name: string & !=""

	category?:    string
	description?: string

	// Version is bumped whenever the rules change
	version: *1 | (int & >=1)

	// Construction constants bound to T, BACK_T and PLINTH
	base_thickness?:       number & >0
	back_panel_thickness?: number & >0
	plinth_height?:        number & >=0

	params:       *[] | [...#Param]
	derived_vars: *[] | [...#DerivedVar]
	parts:        *[] | [...#Part]
	validations:  *[] | [...#Validation]
}

#Param: {
	name:     #Identifier
	default?: number
	min?:     number
	max?:     number
	required: *false | bool
	label?:   string
	help?:    string
}

#DerivedVar: {
	name:    #Identifier
	formula: #Formula
}

#Part: {
	name:          string & !=""
	type?:         string
	width:         #Formula
	height:        #Formula
	thickness?:    string
	qty:           #Formula
	material?:     string
	edge_banding?: string
	grain?:        string
}

#Validation: {
	condition: #Formula
	message:   string & !=""
}
`
