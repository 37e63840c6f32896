package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gerunddev/nbimport/internal/beaker"
	"github.com/gerunddev/nbimport/internal/styles"
)

func newConvertCmd(a *app) *cobra.Command {
	var output string
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "convert <notebook.ipynb>...",
		Short: "Convert IPython notebooks to Beaker notebooks",
		Long: `Convert reads each IPython notebook and writes a Beaker notebook with the
.bkr extension, next to the source or in output_dir when one is configured.
Cells of unknown type are skipped and reported in the log.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return errors.New("--output can only be used with a single notebook")
			}
			if toStdout && len(args) > 1 {
				return errors.New("--stdout can only be used with a single notebook")
			}

			imp := a.ipynbImporter()
			out := cmd.OutOrStdout()
			failed := 0

			for _, src := range args {
				start := time.Now()
				a.log.ConversionStarted(src)

				data, err := os.ReadFile(src)
				if err != nil {
					failed++
					a.log.ImportFailed(src, err)
					fmt.Fprintln(out, styles.ErrorStyle.Render(fmt.Sprintf("✗ %s: %v", src, err)))
					continue
				}

				nb, stats, err := imp.ImportWithStats(data)
				if err != nil {
					failed++
					a.log.ImportFailed(src, err)
					fmt.Fprintln(out, styles.ErrorStyle.Render(fmt.Sprintf("✗ %s: %v", src, err)))
					continue
				}

				if toStdout {
					encoded, err := beaker.Marshal(nb, a.cfg.Indent)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(encoded))
					a.log.ConversionCompleted(src, "-", stats.Cells(), stats.Skipped, time.Since(start))
					continue
				}

				dest := output
				if dest == "" {
					dest = a.cfg.OutputPath(src)
				}
				if err := beaker.WriteFile(dest, nb, a.cfg.Indent); err != nil {
					failed++
					a.log.ImportFailed(src, err)
					fmt.Fprintln(out, styles.ErrorStyle.Render(fmt.Sprintf("✗ %s: %v", src, err)))
					continue
				}

				a.log.ConversionCompleted(src, dest, stats.Cells(), stats.Skipped, time.Since(start))
				fmt.Fprintln(out, convertedLine(src, dest, stats.Cells(), stats.Skipped))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d notebook(s) failed to convert", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (single notebook only)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the Beaker notebook to stdout")

	return cmd
}

// convertedLine renders the success line for one notebook
func convertedLine(src, dest string, cells, skipped int) string {
	line := styles.SuccessStyle.Render(fmt.Sprintf("✓ %s → %s", filepath.Base(src), dest))
	detail := fmt.Sprintf(" (%d cells", cells)
	if skipped > 0 {
		detail += fmt.Sprintf(", %d skipped", skipped)
	}
	detail += ")"
	return line + styles.DimStyle.Render(detail)
}
