package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openjoinery/joinery/pkg/config"
	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/telemetry"
)

func newTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Template catalogue management",
		Long: `Manage the parametric templates stored in the database.

Templates are authored in CUE or YAML files under a top-level "templates"
map keyed by template code, and imported with "joinery template import".`,
	}

	cmd.AddCommand(newTemplateListCommand())
	cmd.AddCommand(newTemplateShowCommand())
	cmd.AddCommand(newTemplateImportCommand())
	cmd.AddCommand(newTemplateCheckCommand())

	return cmd
}

func newTemplateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			templates, err := a.store.ListTemplates(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(templates)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tCATEGORY\tVERSION")
			for _, t := range templates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", t.Code, t.Name, t.Category, t.Version)
			}
			return w.Flush()
		},
	}
}

func newTemplateShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show a template with its params and rules",
		Example: `  joinery template show KITCHEN_BASE
  joinery template show WARDROBE_2_SPLIT --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			def, err := a.store.LoadDefinition(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(def)
			}
			printDefinition(def)
			return nil
		},
	}
}

func printDefinition(def *engine.Definition) {
	t := def.Template
	fmt.Printf("%s - %s (v%d)\n", t.Code, t.Name, t.Version)
	if t.Category != "" {
		fmt.Printf("Category: %s\n", t.Category)
	}
	if t.Description != "" {
		fmt.Printf("%s\n", t.Description)
	}
	fmt.Printf("T=%s BACK_T=%s PLINTH=%s\n",
		formatOptional(t.BaseThickness), formatOptional(t.BackPanelThickness), formatOptional(t.PlinthHeight))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

	fmt.Fprintln(w, "\nPARAM\tDEFAULT\tMIN\tMAX\tREQUIRED\tLABEL\tHELP")
	for _, p := range def.Params {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
			p.Name, formatOptional(p.Default), formatOptional(p.Min), formatOptional(p.Max), p.Required, p.Label, p.HelpText)
	}

	fmt.Fprintln(w, "\nDERIVED\tFORMULA")
	for _, d := range def.DerivedVars {
		fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Formula)
	}

	fmt.Fprintln(w, "\nCONDITION\tMESSAGE")
	for _, v := range def.ValidationRules {
		fmt.Fprintf(w, "%s\t%s\n", v.Condition, v.Message)
	}

	fmt.Fprintln(w, "\nPART\tTYPE\tWIDTH\tHEIGHT\tTHICKNESS\tQTY\tMATERIAL")
	for _, r := range def.PartRules {
		thickness := r.ThicknessExpr
		if thickness == "" {
			thickness = engine.VarThickness
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.PartName, r.PartType, r.WidthExpr, r.HeightExpr, thickness, r.QtyExpr, r.MaterialType)
	}
	_ = w.Flush()
}

func newTemplateImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [path...]",
		Short: "Import template files into the database",
		Long: `Parse CUE and YAML template files and save them to the database.

Templates with an existing code are replaced, rules included. Valid
templates are saved even if other files fail to parse; the command then
reports the failures and exits non-zero. Without arguments the configured
template directory is imported.`,
		Example: `  # Import the configured template directory
  joinery template import

  # Import specific files
  joinery template import ./templates/vanity.cue ./templates/tv_unit.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			paths := args
			if len(paths) == 0 {
				if a.cfg.Quote.TemplateDir == "" {
					return fmt.Errorf("no paths given and no template_dir configured")
				}
				paths = []string{a.cfg.Quote.TemplateDir}
			}

			saved, parsed, err := importTemplates(ctx, a, paths)
			if err != nil {
				return err
			}

			for _, t := range saved {
				fmt.Printf("✓ Imported %s (v%d)\n", t.Code, t.Version)
			}
			for _, e := range parsed.Errors {
				fmt.Printf("✗ %s\n", e.Error())
			}
			if parsed.HasErrors() {
				return fmt.Errorf("%d template errors", len(parsed.Errors))
			}
			return nil
		},
	}

	return cmd
}

// importTemplates parses paths and saves every valid definition.
func importTemplates(ctx context.Context, a *app, paths []string) (saved []*engine.Template, parsed *config.ParsedTemplates, err error) {
	op := telemetry.StartOperation(a.tel.WithContext(ctx), "template.import",
		attribute.Int("template.paths", len(paths)))
	defer func() { op.End(err) }()

	parsed, err = config.NewTemplateParser().Parse(op.Ctx, paths)
	if err != nil {
		return nil, nil, err
	}

	for _, def := range parsed.Definitions() {
		t, err := a.store.SaveDefinition(op.Ctx, def)
		if err != nil {
			return saved, parsed, fmt.Errorf("failed to save template %s: %w", def.Template.Code, err)
		}
		saved = append(saved, t)
	}

	op.Logger.WithFields(map[string]interface{}{
		"files":     len(parsed.SourceFiles),
		"templates": len(saved),
		"errors":    len(parsed.Errors),
		"elapsed":   op.Timer.Duration().String(),
	}).Debug("Imported templates")
	return saved, parsed, nil
}

func newTemplateCheckCommand() *cobra.Command {
	var (
		code      string
		width     float64
		height    float64
		depth     float64
		overrides string
	)

	cmd := &cobra.Command{
		Use:   "check <path>...",
		Short: "Validate template files and preview their cutlists",
		Long: `Parse template files without touching the database and run each
template against the given dimensions.

Parse and schema errors are reported with file, line and field path. Each
valid template is then generated in memory so formula and validation
failures show up before the template is imported.`,
		Example: `  # Check a directory of templates against a 600x720x560 carcass
  joinery template check ./templates

  # Preview one template with overrides
  joinery template check ./templates --code WARDROBE_2_SPLIT \
    --width 1200 --height 2100 --depth 600 --overrides '{"SHELF_COUNT": 5}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			parsed, err := config.NewTemplateParser().Parse(ctx, args)
			if err != nil {
				return err
			}
			for _, e := range parsed.Errors {
				fmt.Printf("✗ %s\n", e.Error())
			}

			provider := engine.NewStaticProvider()
			generator := engine.NewGenerator(provider, engine.WithLogger(log.Logger))

			failed := len(parsed.Errors)
			found := false
			for _, def := range parsed.Definitions() {
				if code != "" && def.Template.Code != code {
					continue
				}
				found = true

				def.Template.ID = def.Template.Code
				provider.Add(*def)

				item := engine.QuoteItem{
					ID:        "check",
					Product:   &engine.Product{Name: def.Template.Name, Template: &def.Template},
					Quantity:  1,
					Width:     engine.Float(width),
					Height:    engine.Float(height),
					Depth:     engine.Float(depth),
					Overrides: overrides,
				}

				result, err := generator.Generate(ctx, item)
				if err != nil {
					failed++
					fmt.Printf("✗ %s: %v\n", def.Template.Code, err)
					continue
				}

				fmt.Printf("✓ %s: %d parts\n", def.Template.Code, len(result.Parts))
				if verbose {
					printParts(result.Parts)
				}
			}

			if code != "" && !found {
				return fmt.Errorf("template %s not found in %v", code, args)
			}
			if failed > 0 {
				return fmt.Errorf("%d templates failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "only check the template with this code")
	cmd.Flags().Float64Var(&width, "width", 600, "item width in mm")
	cmd.Flags().Float64Var(&height, "height", 720, "item height in mm")
	cmd.Flags().Float64Var(&depth, "depth", 560, "item depth in mm")
	cmd.Flags().StringVar(&overrides, "overrides", "", "JSON object of param overrides")

	return cmd
}

func printParts(parts []engine.PartDescriptor) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PART\tTYPE\tWIDTH\tHEIGHT\tTHICKNESS\tQTY\tMATERIAL\tEDGE\tGRAIN")
	for _, p := range parts {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%d\t%s\t%s\t%s\n",
			p.PartName, p.PartType, p.Width, p.Height, p.Thickness, p.Quantity, p.MaterialType, p.EdgeBanding, p.GrainDirection)
	}
	_ = w.Flush()
}
