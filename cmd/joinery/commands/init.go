package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openjoinery/joinery/pkg/config"
	"github.com/openjoinery/joinery/pkg/quote"
)

func newInitCommand() *cobra.Command {
	var (
		dataDir string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a joinery workspace",
		Long: `Initialize a joinery workspace with a configuration file, a SQLite
database and the built-in templates.

The built-in KITCHEN_BASE and WARDROBE_2_SPLIT templates are saved on every
run. Demo products are created only when the product table is empty.`,
		Example: `  # Initialize in the current directory
  joinery init

  # Initialize with a custom config path and data directory
  joinery init --config /etc/joinery/joinery.yaml --data-dir /var/lib/joinery`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := configPath
			if path == "" {
				path = defaultConfigPath
			}
			if dataDir == "" {
				dataDir = filepath.Join(filepath.Dir(path), "data")
			}

			log.Info().
				Str("config", path).
				Str("data_dir", dataDir).
				Msg("Initializing workspace")

			cfg := config.DefaultAppConfig(dataDir)
			cfg.Quote.TemplateDir = filepath.Join(filepath.Dir(path), "templates")

			if _, err := os.Stat(path); err == nil && !force {
				fmt.Printf("✓ Config file already exists: %s\n", path)
			} else {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("failed to create config directory: %w", err)
				}
				if err := cfg.Save(path); err != nil {
					return err
				}
				fmt.Printf("✓ Created config file: %s\n", path)
			}
			configPath = path

			for _, dir := range []string{dataDir, cfg.Quote.TemplateDir} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			fmt.Printf("✓ Initialized SQLite database: %s\n", a.cfg.Database.Path)

			defs, err := config.BuiltinDefinitions(ctx)
			if err != nil {
				return err
			}
			result, err := quote.Seed(ctx, a.store, defs, a.logger)
			if err != nil {
				return err
			}

			for _, t := range result.Templates {
				fmt.Printf("✓ Saved template: %s (v%d)\n", t.Code, t.Version)
			}
			if result.Products > 0 {
				fmt.Printf("✓ Created %d demo products\n", result.Products)
			}

			fmt.Printf("\n✅ Workspace initialized successfully!\n\n")
			fmt.Printf("Next steps:\n")
			fmt.Printf("  1. Create a quotation:\n")
			fmt.Printf("     joinery quote new --reference \"Mehta residence\"\n\n")
			fmt.Printf("  2. Add an item and generate its cutlist:\n")
			fmt.Printf("     joinery quote add <quotation> --product \"Kitchen Base Cabinet\" --width 600 --height 720 --depth 560\n")
			fmt.Printf("     joinery generate <quotation>\n\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory (default: data next to the config file)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
