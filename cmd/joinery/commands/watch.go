package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/openjoinery/joinery/pkg/config"
	"github.com/openjoinery/joinery/pkg/policy"
)

func newWatchCommand() *cobra.Command {
	var (
		quotations []string
		debounce   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Re-import templates and regenerate cutlists on change",
		Long: `Watch template files and re-import them whenever they change.

After each import the cutlists of the quotations given with --quotation are
regenerated, so template edits show up in the stored cutlist right away.
When a policy directory is configured it is watched too and policies are
reloaded on change. Without arguments the configured template directory is
watched. Stops on interrupt.`,
		Example: `  joinery watch
  joinery watch ./templates --quotation <quotation> --debounce 1s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			paths := args
			if len(paths) == 0 {
				if a.cfg.Quote.TemplateDir == "" {
					return fmt.Errorf("no paths given and no template_dir configured")
				}
				paths = []string{a.cfg.Quote.TemplateDir}
			}

			for _, qid := range quotations {
				if _, err := a.service.Quotation(ctx, qid); err != nil {
					return err
				}
			}

			opts := []config.WatcherOption{
				config.WithDebounce(debounce),
				config.WithWatchLogger(a.logger.With().Str("component", "template-watcher").Logger()),
			}

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				watcher := config.NewWatcher(paths, opts...)
				return watcher.Run(ctx, func(ctx context.Context, files []string) error {
					saved, parsed, err := importTemplates(ctx, a, files)
					if err != nil {
						return err
					}
					for _, t := range saved {
						fmt.Printf("✓ Imported %s (v%d)\n", t.Code, t.Version)
					}
					for _, e := range parsed.Errors {
						fmt.Printf("✗ %s\n", e.Error())
					}
					if len(saved) == 0 {
						return nil
					}
					return regenerate(ctx, a, quotations)
				})
			})

			if dir := a.cfg.Quote.PolicyDir; dir != "" {
				g.Go(func() error {
					loader := policy.NewLoader(a.logger)
					return loader.Watch(ctx, []string{dir}, func(policies []policy.Policy) error {
						if err := a.policies.ReloadPolicies(ctx, policies); err != nil {
							return err
						}
						fmt.Printf("✓ Reloaded %d policies\n", len(policies))
						return regenerate(ctx, a, quotations)
					}, config.WithDebounce(debounce))
				})
			}

			fmt.Printf("Watching %v (Ctrl+C to stop)\n", paths)
			return g.Wait()
		},
	}

	cmd.Flags().StringSliceVarP(&quotations, "quotation", "q", nil, "quotation to regenerate after each change (repeatable)")
	cmd.Flags().DurationVar(&debounce, "debounce", config.DefaultDebounce, "wait for changes to settle")

	return cmd
}

func regenerate(ctx context.Context, a *app, quotations []string) error {
	for _, qid := range quotations {
		report, err := a.service.GenerateCutlist(ctx, qid)
		if err != nil {
			return fmt.Errorf("failed to regenerate %s: %w", qid, err)
		}
		fmt.Printf("✓ Regenerated %s: %d generated, %d fallback, %d failed, %d parts\n",
			qid, report.Generated, report.Fallback, report.Failed, report.Parts)
		for _, r := range report.Failures() {
			fmt.Printf("  ✗ %s (%s): %s\n", r.QuoteItemID, r.Product, r.Error)
		}
	}
	return nil
}
