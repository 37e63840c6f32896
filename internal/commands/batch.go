package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gerunddev/nbimport/internal/batch"
	"github.com/gerunddev/nbimport/internal/config"
	"github.com/gerunddev/nbimport/internal/state"
	"github.com/gerunddev/nbimport/internal/styles"
	"github.com/gerunddev/nbimport/internal/tui"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
		dryRun   bool
		force    bool
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "batch [dir]",
		Short: "Convert every changed notebook under a directory",
		Long: `Batch walks a directory (notebook_dir by default) and converts every
.ipynb file whose content changed since its last conversion. With --watch it
keeps running and rescans on every interval until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.NotebookDir
			if len(args) == 1 {
				dir = args[0]
			}
			if interval <= 0 {
				interval = a.cfg.Interval
			}

			statePath := config.StateFilePath()
			st, err := state.Load(statePath)
			if err != nil {
				a.log.StateError("load", err)
				return fmt.Errorf("failed to load state: %w", err)
			}

			b := batch.NewBatcher(a.cfg, st, a.ipynbImporter())
			b.SetLogger(a.log)
			b.DryRun = dryRun
			b.Force = force
			b.StatePath = statePath

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, styles.WarningStyle.Render("Dry run: no files will be written"))
			}

			if watch {
				fmt.Fprintln(out, styles.DimStyle.Render(fmt.Sprintf("Watching %s every %v (ctrl+c to stop)", dir, interval)))
				return b.Watch(ctx, dir, interval, func(r *batch.Result, err error) {
					if err != nil {
						fmt.Fprintln(out, styles.ErrorStyle.Render("✗ Batch failed: "+err.Error()))
						return
					}
					fmt.Fprint(out, tui.Summary(r))
				})
			}

			var result *batch.Result
			if plain {
				result, err = b.Run(ctx, dir)
			} else {
				result, err = tui.RunProgress(ctx, func(ctx context.Context, onFile func(batch.FileResult)) (*batch.Result, error) {
					b.OnFile = onFile
					return b.Run(ctx, dir)
				})
			}
			if err != nil {
				return err
			}

			// The progress display leaves its summary on screen
			if plain {
				fmt.Fprint(out, tui.Summary(result))
			}
			return batchError(result)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and rescan on every interval")
	cmd.Flags().DurationVar(&interval, "interval", 0, "rescan interval for --watch (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "convert without writing outputs or state")
	cmd.Flags().BoolVar(&force, "force", false, "reconvert notebooks even if unchanged")
	cmd.Flags().BoolVar(&plain, "plain", false, "print a summary without the progress display")

	return cmd
}

// batchError turns per-file failures into the command's error
func batchError(r *batch.Result) error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%d notebook(s) failed to convert", len(r.Errors))
}
