package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gerunddev/nbimport/internal/diff"
	"github.com/gerunddev/nbimport/internal/styles"
)

func newDiffCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "diff <notebook.ipynb> [notebook.bkr]",
		Short: "Compare a notebook with its existing Beaker conversion",
		Long: `Diff converts the IPython notebook again and compares it with an existing
Beaker notebook (its configured output path by default). Cell ids are
renumbered on both sides so only content changes are shown.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			target := a.cfg.OutputPath(src)
			if len(args) == 2 {
				target = args[1]
			}

			report, err := diff.Generate(a.ipynbImporter(), src, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Equal {
				fmt.Fprintln(out, styles.SuccessStyle.Render("✓ No differences"))
				return nil
			}

			format := diff.FormatRendered
			if plain {
				format = diff.FormatPlain
			}
			fmt.Fprint(out, diff.Render(report, format))
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the unified diff without rendering")

	return cmd
}
