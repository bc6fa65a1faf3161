package config

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"time"

	"github.com/openjoinery/joinery/pkg/engine"
)

//go:embed builtin/*.cue
var builtinFS embed.FS

// BuiltinTemplates parses the templates shipped with the binary.
func BuiltinTemplates(ctx context.Context) (*ParsedTemplates, error) {
	names, err := fs.Glob(builtinFS, "builtin/*.cue")
	if err != nil {
		return nil, fmt.Errorf("failed to list builtin templates: %w", err)
	}
	sort.Strings(names)

	tp := NewTemplateParser()
	parsed := &ParsedTemplates{ParsedAt: time.Now()}
	for _, name := range names {
		content, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read builtin template %s: %w", name, err)
		}
		tp.parseInto(ctx, parsed, path.Base(name), content)
	}

	if err := parsed.Err(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// BuiltinDefinitions returns the shipped templates as engine definitions.
func BuiltinDefinitions(ctx context.Context) ([]*engine.Definition, error) {
	parsed, err := BuiltinTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return parsed.Definitions(), nil
}
