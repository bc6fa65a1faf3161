package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openjoinery/joinery/pkg/engine"
)

// TemplateParser parses and validates template definition files. CUE and
// YAML sources are accepted; both declare templates under a top-level
// "templates" map keyed by template code.
type TemplateParser struct {
	ctx            *cue.Context
	schemaRegistry *SchemaRegistry
	validator      *validator.Validate
}

// NewTemplateParser creates a new template parser.
func NewTemplateParser() *TemplateParser {
	ctx := cuecontext.New()
	return &TemplateParser{
		ctx:            ctx,
		schemaRegistry: newSchemaRegistry(ctx),
		validator:      validator.New(),
	}
}

// Parse parses template definitions from the given files and directories.
// Directories are walked for .cue, .yaml and .yml files. Per-template
// problems are reported in ParsedTemplates.Errors; the returned error is
// reserved for sources that cannot be read at all.
func (tp *TemplateParser) Parse(ctx context.Context, sources []string) (*ParsedTemplates, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}

	var files []string
	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}

		if info.IsDir() {
			found, err := tp.LoadFromDirectory(source)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else {
			files = append(files, source)
		}
	}

	parsed := &ParsedTemplates{ParsedAt: time.Now()}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			parsed.Errors = append(parsed.Errors, ValidationError{
				File:     file,
				Message:  fmt.Sprintf("failed to read file: %v", err),
				Severity: "error",
			})
			continue
		}
		tp.parseInto(ctx, parsed, file, content)
	}

	return parsed, nil
}

// ParseBytes parses one template source. The file extension of name
// selects the format.
func (tp *TemplateParser) ParseBytes(ctx context.Context, name string, content []byte) *ParsedTemplates {
	parsed := &ParsedTemplates{ParsedAt: time.Now()}
	tp.parseInto(ctx, parsed, name, content)
	return parsed
}

// ParseInline parses inline CUE content.
func (tp *TemplateParser) ParseInline(ctx context.Context, content string) *ParsedTemplates {
	return tp.ParseBytes(ctx, "inline.cue", []byte(content))
}

// LoadDefinitions parses sources and converts them to engine definitions,
// failing if any template is invalid.
func (tp *TemplateParser) LoadDefinitions(ctx context.Context, sources []string) ([]*engine.Definition, error) {
	parsed, err := tp.Parse(ctx, sources)
	if err != nil {
		return nil, err
	}
	if parsed.HasErrors() {
		return nil, parsed.Err()
	}
	return parsed.Definitions(), nil
}

func (tp *TemplateParser) parseInto(ctx context.Context, parsed *ParsedTemplates, file string, content []byte) {
	var (
		templates []TemplateFile
		errs      []ValidationError
	)

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		templates, errs = tp.parseYAML(ctx, file, content)
	default:
		templates, errs = tp.parseCUE(file, content)
	}

	parsed.SourceFiles = append(parsed.SourceFiles, file)
	parsed.Errors = append(parsed.Errors, errs...)

	for _, t := range templates {
		if prev := parsed.find(t.Code); prev != nil {
			parsed.Errors = append(parsed.Errors, ValidationError{
				File:     file,
				Path:     "templates." + t.Code,
				Message:  "duplicate template code",
				Severity: "error",
			})
			continue
		}
		parsed.Templates = append(parsed.Templates, t)
	}
}

// parseCUE compiles a CUE file and unifies every entry of its templates map
// with the #Template schema.
func (tp *TemplateParser) parseCUE(file string, content []byte) ([]TemplateFile, []ValidationError) {
	val := tp.ctx.CompileBytes(content, cue.Filename(file))
	if err := val.Err(); err != nil {
		return nil, tp.convertCUEErrors(err, "")
	}

	templatesVal := val.LookupPath(cue.ParsePath("templates"))
	if !templatesVal.Exists() {
		return nil, []ValidationError{{
			File:     file,
			Path:     "templates",
			Message:  "no templates declared",
			Severity: "error",
		}}
	}

	iter, err := templatesVal.Fields()
	if err != nil {
		return nil, []ValidationError{{
			File:     file,
			Path:     "templates",
			Message:  fmt.Sprintf("failed to iterate templates: %v", err),
			Severity: "error",
		}}
	}

	var (
		templates []TemplateFile
		errs      []ValidationError
	)
	for iter.Next() {
		key := iter.Selector().Unquoted()
		path := "templates." + key

		// The key names the template; an explicit code must agree with it.
		entry := iter.Value().FillPath(cue.ParsePath("code"), key)

		unified, err := tp.schemaRegistry.Apply(SchemaTemplate, entry)
		if err != nil {
			errs = append(errs, tp.convertCUEErrors(err, path)...)
			continue
		}

		var t TemplateFile
		if err := unified.Decode(&t); err != nil {
			errs = append(errs, ValidationError{
				File:     file,
				Path:     path,
				Message:  fmt.Sprintf("failed to decode template: %v", err),
				Severity: "error",
			})
			continue
		}

		if err := tp.validator.Struct(t); err != nil {
			errs = append(errs, ValidationError{
				File:     file,
				Path:     path,
				Message:  fmt.Sprintf("validation failed: %v", err),
				Severity: "error",
			})
			continue
		}

		templates = append(templates, t)
	}

	return templates, errs
}

// parseYAML decodes a YAML file and validates each template against the
// same schema as CUE sources. Templates are returned in code order.
func (tp *TemplateParser) parseYAML(ctx context.Context, file string, content []byte) ([]TemplateFile, []ValidationError) {
	var doc struct {
		Templates map[string]TemplateFile `yaml:"templates"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, []ValidationError{{
			File:     file,
			Message:  fmt.Sprintf("failed to parse YAML: %v", err),
			Severity: "error",
		}}
	}
	if len(doc.Templates) == 0 {
		return nil, []ValidationError{{
			File:     file,
			Path:     "templates",
			Message:  "no templates declared",
			Severity: "error",
		}}
	}

	keys := make([]string, 0, len(doc.Templates))
	for key := range doc.Templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var (
		templates []TemplateFile
		errs      []ValidationError
	)
	for _, key := range keys {
		t := doc.Templates[key]
		path := "templates." + key

		if t.Code == "" {
			t.Code = key
		}
		if t.Code != key {
			errs = append(errs, ValidationError{
				File:     file,
				Path:     path + ".code",
				Message:  fmt.Sprintf("code %q does not match key %q", t.Code, key),
				Severity: "error",
			})
			continue
		}

		if err := tp.schemaRegistry.ValidateAgainstSchema(ctx, SchemaTemplate, t); err != nil {
			errs = append(errs, ValidationError{
				File:     file,
				Path:     path,
				Message:  err.Error(),
				Severity: "error",
			})
			continue
		}

		if err := tp.validator.Struct(t); err != nil {
			errs = append(errs, ValidationError{
				File:     file,
				Path:     path,
				Message:  fmt.Sprintf("validation failed: %v", err),
				Severity: "error",
			})
			continue
		}

		templates = append(templates, t)
	}

	return templates, errs
}

// convertCUEErrors converts CUE errors to ValidationError slice.
func (tp *TemplateParser) convertCUEErrors(err error, path string) []ValidationError {
	var validationErrors []ValidationError

	for _, e := range errors.Errors(err) {
		pos := errors.Positions(e)
		var file string
		var line, column int

		if len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}

		errPath := path
		if p := e.Path(); len(p) > 0 {
			errPath = strings.Join(p, ".")
		}

		validationErrors = append(validationErrors, ValidationError{
			File:     file,
			Line:     line,
			Column:   column,
			Path:     errPath,
			Message:  errors.Details(e, nil),
			Severity: "error",
		})
	}

	return validationErrors
}

// LoadFromDirectory lists all template files in a directory tree.
func (tp *TemplateParser) LoadFromDirectory(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && IsTemplateFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return files, nil
}

// IsTemplateFile reports whether path has a template source extension.
func IsTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".yaml", ".yml":
		return true
	}
	return false
}

func (p *ParsedTemplates) find(code string) *TemplateFile {
	for i := range p.Templates {
		if p.Templates[i].Code == code {
			return &p.Templates[i]
		}
	}
	return nil
}

// Err summarises Errors as a single error, or returns nil.
func (p *ParsedTemplates) Err() error {
	if len(p.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(p.Errors))
	for _, e := range p.Errors {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("template errors: %s", strings.Join(msgs, "; "))
}
