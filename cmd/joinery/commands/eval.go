package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/expr"
)

func newEvalCommand() *cobra.Command {
	var (
		assigns   map[string]string
		condition bool
		width     float64
		height    float64
		depth     float64
	)

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a template formula",
		Long: `Evaluate a formula or condition the way templates do.

The context starts with W, H and D from the dimension flags and the default
material constants T=18, BACK_T=6 and PLINTH=100. --var adds or replaces
variables. Use --condition for validation rules.`,
		Example: `  joinery eval "W - 2*T" --width 600
  joinery eval "ceil(INTERNAL_W / 600)" --var INTERNAL_W=1164
  joinery eval --condition "DOOR_COUNT >= 1 && DOOR_COUNT <= 2" --var DOOR_COUNT=3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars := engine.BuildContext(engine.Template{}, engine.QuoteItem{
				Width:  engine.Float(width),
				Height: engine.Float(height),
				Depth:  engine.Float(depth),
			})
			for name, raw := range assigns {
				v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", name, err)
				}
				vars[name] = v
			}

			var result interface{}
			var err error
			if condition {
				result, err = expr.EvaluateBoolean(args[0], vars)
			} else {
				result, err = expr.EvaluateNumeric(args[0], vars)
			}

			if jsonOutput {
				out := map[string]interface{}{"expression": args[0]}
				if err != nil {
					out["error"] = err.Error()
					out["kind"] = expr.KindOf(err)
				} else {
					out["result"] = result
				}
				if perr := printJSON(out); perr != nil {
					return perr
				}
				return err
			}
			if err != nil {
				if _, ok := expr.UnresolvedName(err); ok {
					return fmt.Errorf("%w (known: %s)", err, strings.Join(knownNames(vars), ", "))
				}
				return err
			}

			fmt.Println(result)
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&assigns, "var", nil, "variable as NAME=VALUE (repeatable)")
	cmd.Flags().BoolVar(&condition, "condition", false, "evaluate as a boolean condition")
	cmd.Flags().Float64Var(&width, "width", 0, "W in mm")
	cmd.Flags().Float64Var(&height, "height", 0, "H in mm")
	cmd.Flags().Float64Var(&depth, "depth", 0, "D in mm")

	return cmd
}

func knownNames(vars engine.Vars) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
