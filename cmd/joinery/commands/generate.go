package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openjoinery/joinery/pkg/quote"
)

func newGenerateCommand() *cobra.Command {
	var (
		workers int
		enforce bool
	)

	cmd := &cobra.Command{
		Use:   "generate <quotation-id>",
		Short: "Generate the cutlist of a quotation",
		Long: `Run every item of a quotation through its product's template and store
the resulting parts.

Items are generated concurrently. Products without a template get a single
generic part sized from the item. An item that fails keeps its previous
cutlist and is listed in the report; the command exits non-zero if any item
failed. Policy violations are reported, and fail the item with --enforce.`,
		Example: `  joinery generate <quotation>
  joinery generate <quotation> --workers 8 --enforce`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if cmd.Flags().Changed("workers") || cmd.Flags().Changed("enforce") {
				cfg := a.service.Config()
				if workers > 0 {
					cfg.Workers = workers
				}
				if cmd.Flags().Changed("enforce") {
					cfg.EnforcePolicies = enforce
				}
				a.service = quote.NewService(a.store, a.generator, cfg,
					quote.WithLogger(a.logger),
					quote.WithTracer(a.tel.Tracer),
					quote.WithMetrics(a.tel.Metrics),
					quote.WithPolicies(a.policies),
				)
			}

			report, err := a.service.GenerateCutlist(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				printBatchReport(report)
			}

			if report.Failed > 0 {
				return fmt.Errorf("%d of %d items failed", report.Failed, len(report.Items))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent items (default from config)")
	cmd.Flags().BoolVar(&enforce, "enforce", false, "fail items with blocking policy violations")

	return cmd
}

func printBatchReport(report *quote.BatchReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRODUCT\tTEMPLATE\tOUTCOME\tPARTS\tDETAIL")
	for _, r := range report.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", r.QuoteItemID, r.Product, r.Template, r.Outcome, r.Parts, r.Error)
		for _, v := range r.Violations {
			fmt.Fprintf(w, "\t\t\t%s\t\t%s: %s\n", v.Severity, v.Policy, v.Message)
		}
	}
	_ = w.Flush()

	fmt.Printf("\n%d generated, %d fallback, %d failed, %d parts in %s\n",
		report.Generated, report.Fallback, report.Failed, report.Parts, report.Duration)
}

func newCutlistCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cutlist <quotation-id>",
		Short: "Show the stored cutlist of a quotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if _, err := a.service.Quotation(ctx, args[0]); err != nil {
				return err
			}
			rows, err := a.service.Cutlist(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(rows)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ITEM\t#\tPART\tTYPE\tWIDTH\tHEIGHT\tTHICKNESS\tQTY\tMATERIAL\tEDGE\tGRAIN")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%g\t%g\t%g\t%d\t%s\t%s\t%s\n",
					r.QuoteItemID, r.Position, r.PartName, r.PartType, r.Width, r.Height, r.Thickness,
					r.Quantity, r.MaterialType, r.EdgeBanding, r.GrainDirection)
			}
			return w.Flush()
		},
	}
}

func newSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <quotation-id>",
		Short: "Summarize sheet usage of a stored cutlist",
		Long: `Tally the stored cutlist of a quotation by material and thickness.

Sheet counts are an area lower bound against the configured stock sheet
size; parts are not nested.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			summary, err := a.service.Summary(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(summary)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "MATERIAL\tTHICKNESS\tPIECES\tAREA (m²)\tSHEETS\tWASTAGE")
			for _, m := range summary.Materials {
				material := m.Material
				if material == "" {
					material = "(unassigned)"
				}
				fmt.Fprintf(w, "%s\t%g\t%d\t%.3f\t%d\t%.1f%%\n",
					material, m.Thickness, m.Pieces, m.Area/1e6, m.Sheets, m.WastagePercent)
			}
			fmt.Fprintf(w, "TOTAL\t\t%d\t%.3f\t%d\t%.1f%%\n",
				summary.Pieces, summary.TotalArea/1e6, summary.Sheets, summary.WastagePercent)
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nSheet: %gx%g mm\n", summary.SheetWidth, summary.SheetHeight)
			return nil
		},
	}
}
