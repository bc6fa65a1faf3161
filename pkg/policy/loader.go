package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/openjoinery/joinery/pkg/config"
)

// Loader reads workshop policies from disk.
//
// A .rego file is one policy named after the file. A .json, .yaml or .yml
// file holds either a single policy or a Bundle of them.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a new policy loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "policy-loader").Logger(),
	}
}

// IsPolicyFile reports whether path names a loadable policy file.
func IsPolicyFile(path string) bool {
	switch filepath.Ext(path) {
	case ".rego", ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFromPaths loads policies from a list of files and directories.
// Directories are walked recursively and files that fail to load there are
// skipped with a warning; a named file that fails is an error.
func (l *Loader) LoadFromPaths(ctx context.Context, paths []string) ([]Policy, error) {
	var all []Policy
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load from path %s: %w", path, err)
		}

		var policies []Policy
		if info.IsDir() {
			policies, err = l.loadFromDirectory(ctx, path)
		} else {
			policies, err = l.loadFromFile(ctx, path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load from path %s: %w", path, err)
		}
		all = append(all, policies...)
	}

	l.logger.Debug().
		Int("total", len(all)).
		Int("sources", len(paths)).
		Msg("Policies loaded from paths")

	return all, nil
}

func (l *Loader) loadFromDirectory(ctx context.Context, dir string) ([]Policy, error) {
	var policies []Policy

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsPolicyFile(path) {
			return nil
		}

		loaded, err := l.loadFromFile(ctx, path)
		if err != nil {
			l.logger.Warn().Err(err).Str("path", path).Msg("Failed to load policy file")
			return nil
		}
		policies = append(policies, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return policies, nil
}

func (l *Loader) loadFromFile(_ context.Context, path string) ([]Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var policies []Policy
	switch filepath.Ext(path) {
	case ".rego":
		policies = []Policy{regoPolicy(path, data)}
	case ".json":
		policies, err = decodePolicies(data, json.Unmarshal)
	case ".yaml", ".yml":
		policies, err = decodePolicies(data, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	now := time.Now()
	for i := range policies {
		p := &policies[i]
		if p.Name == "" {
			p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if p.Severity == "" {
			p.Severity = SeverityWarning
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		if p.Metadata == nil {
			p.Metadata = map[string]interface{}{}
		}
		p.Metadata["source"] = path

		l.logger.Debug().
			Str("path", path).
			Str("policy", p.Name).
			Msg("Policy loaded from file")
	}

	return policies, nil
}

// regoPolicy builds a policy from a bare Rego module. The leading comment
// block becomes the description and a "# severity: <level>" line sets the
// severity.
func regoPolicy(path string, data []byte) Policy {
	description, severity := regoHeader(string(data))
	return Policy{
		Name:        strings.TrimSuffix(filepath.Base(path), ".rego"),
		Description: description,
		Rego:        string(data),
		Severity:    severity,
		Enabled:     true,
		Tags:        []string{},
	}
}

// decodePolicies reads a document that is either a single policy or a
// bundle. Bundle members must be named, and carry the bundle name in their
// metadata.
func decodePolicies(data []byte, unmarshal func([]byte, any) error) ([]Policy, error) {
	var bundle Bundle
	if err := unmarshal(data, &bundle); err != nil {
		return nil, err
	}

	if len(bundle.Policies) == 0 {
		var p Policy
		if err := unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.Rego == "" {
			return nil, fmt.Errorf("policy has no rego module")
		}
		return []Policy{p}, nil
	}

	for i := range bundle.Policies {
		p := &bundle.Policies[i]
		if p.Name == "" {
			return nil, fmt.Errorf("bundle %s: policy %d has no name", bundle.Name, i)
		}
		if p.Metadata == nil {
			p.Metadata = map[string]interface{}{}
		}
		if bundle.Name != "" {
			p.Metadata["bundle"] = bundle.Name
		}
	}
	return bundle.Policies, nil
}

func regoHeader(content string) (string, Severity) {
	var description strings.Builder
	var severity Severity

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if trimmed != "" && description.Len() > 0 {
				break
			}
			continue
		}

		comment := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		if rest, ok := strings.CutPrefix(comment, "severity:"); ok {
			severity = Severity(strings.ToLower(strings.TrimSpace(rest)))
			continue
		}
		if comment == "" || strings.HasPrefix(comment, "package") {
			continue
		}
		if description.Len() > 0 {
			description.WriteByte(' ')
		}
		description.WriteString(comment)
	}

	return description.String(), severity
}

// Watch blocks until ctx is cancelled. After changes under paths settle it
// reloads every policy and hands the set to reloadFn.
func (l *Loader) Watch(ctx context.Context, paths []string, reloadFn func([]Policy) error, opts ...config.WatcherOption) error {
	opts = append([]config.WatcherOption{
		config.WithWatchLogger(l.logger),
		config.WithFileFilter(IsPolicyFile),
	}, opts...)

	return config.NewWatcher(paths, opts...).Run(ctx, func(ctx context.Context, changed []string) error {
		l.logger.Info().Strs("changed", changed).Msg("Reloading policies")

		policies, err := l.LoadFromPaths(ctx, paths)
		if err != nil {
			return fmt.Errorf("failed to reload policies: %w", err)
		}
		if err := reloadFn(policies); err != nil {
			return fmt.Errorf("failed to apply reloaded policies: %w", err)
		}

		l.logger.Info().Int("count", len(policies)).Msg("Policies reloaded")
		return nil
	})
}
