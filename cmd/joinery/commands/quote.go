package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/quote"
)

func newQuoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quote",
		Aliases: []string{"quotes"},
		Short:   "Quotation management",
		Long: `Create quotations and manage their items.

Items are priced from their product's pricing model when added or changed,
and the quotation total is kept up to date. Submitted quotations are frozen.`,
	}

	cmd.AddCommand(newQuoteNewCommand())
	cmd.AddCommand(newQuoteListCommand())
	cmd.AddCommand(newQuoteAddCommand())
	cmd.AddCommand(newQuoteItemsCommand())
	cmd.AddCommand(newQuoteSubmitCommand())

	return cmd
}

func newQuoteNewCommand() *cobra.Command {
	var in quote.NewQuotation

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a draft quotation",
		Example: `  joinery quote new --reference "Mehta residence"
  joinery quote new --currency EUR`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			q, err := a.service.CreateQuotation(ctx, in)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(q)
			}
			fmt.Printf("✓ Created quotation %s (%s)\n", q.ID, q.Reference)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Reference, "reference", "", "quotation reference (generated if empty)")
	cmd.Flags().StringVar(&in.Currency, "currency", "", "currency code (default INR)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "free text notes")

	return cmd
}

func newQuoteListCommand() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			quotations, err := a.store.ListQuotations(ctx, limit, offset)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(quotations)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tREFERENCE\tSTATUS\tTOTAL\tCREATED")
			for _, q := range quotations {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f %s\t%s\n",
					q.ID, q.Reference, q.Status, q.TotalPrice, q.Currency, q.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of quotations")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of quotations to skip")

	return cmd
}

func newQuoteAddCommand() *cobra.Command {
	var (
		in                   quote.ItemInput
		width, height, depth float64
	)

	cmd := &cobra.Command{
		Use:   "add <quotation-id>",
		Short: "Add a product to a quotation",
		Example: `  # A kitchen base run with two shelves
  joinery quote add <quotation> --product "Kitchen Base Cabinet" \
    --width 600 --height 720 --depth 560 --overrides '{"SHELF_COUNT": 2}'

  # Two vanities (no template, generic part)
  joinery quote add <quotation> --product Vanity --qty 2 --width 800 --height 600 --depth 450`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			flags := cmd.Flags()
			if flags.Changed("width") {
				in.Width = engine.Float(width)
			}
			if flags.Changed("height") {
				in.Height = engine.Float(height)
			}
			if flags.Changed("depth") {
				in.Depth = engine.Float(depth)
			}

			item, err := a.service.AddItem(ctx, args[0], in)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(item)
			}
			fmt.Printf("✓ Added %s x%d as item %s, price %.2f\n", item.Product.Name, item.Quantity, item.ID, item.ComputedPrice)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.ProductName, "product", "p", "", "product name")
	cmd.Flags().StringVar(&in.ProductID, "product-id", "", "product ID (takes precedence over --product)")
	cmd.Flags().IntVarP(&in.Quantity, "qty", "q", 1, "quantity")
	cmd.Flags().Float64Var(&width, "width", 0, "width in mm")
	cmd.Flags().Float64Var(&height, "height", 0, "height in mm")
	cmd.Flags().Float64Var(&depth, "depth", 0, "depth in mm")
	cmd.Flags().StringVar(&in.Overrides, "overrides", "", "JSON object of param overrides")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "free text notes")

	return cmd
}

func newQuoteItemsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "items <quotation-id>",
		Short: "List the items of a quotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			q, err := a.service.Quotation(ctx, args[0])
			if err != nil {
				return err
			}
			items, err := a.service.Items(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(items)
			}

			fmt.Printf("%s  %s  %s\n\n", q.Reference, q.Status, q.ID)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tPRODUCT\tTEMPLATE\tQTY\tW\tH\tD\tOVERRIDES\tPRICE")
			for _, item := range items {
				var product, template string
				if item.Product != nil {
					product = item.Product.Name
				}
				if t := item.TemplateOf(); t != nil {
					template = t.Code
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%.2f\n",
					item.ID, product, template, item.Quantity,
					formatOptional(item.Width), formatOptional(item.Height), formatOptional(item.Depth),
					item.Overrides, item.ComputedPrice)
			}
			fmt.Fprintf(w, "\t\t\t\t\t\t\tTOTAL\t%.2f %s\n", q.TotalPrice, q.Currency)
			return w.Flush()
		},
	}
}

func newQuoteSubmitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <quotation-id>",
		Short: "Submit a draft quotation, freezing its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			q, err := a.service.Submit(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(q)
			}
			fmt.Printf("✓ Submitted %s, total %.2f %s\n", q.Reference, q.TotalPrice, q.Currency)
			return nil
		},
	}
}
