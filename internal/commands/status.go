package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gerunddev/nbimport/internal/config"
	"github.com/gerunddev/nbimport/internal/state"
	"github.com/gerunddev/nbimport/internal/tui"
)

func newStatusCmd(a *app) *cobra.Command {
	var logLines int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show converted notebooks and pending changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statePath := config.StateFilePath()
			st, err := state.Load(statePath)
			if err != nil {
				a.log.StateError("load", err)
				return fmt.Errorf("failed to load state: %w", err)
			}

			data := &tui.StatusData{
				NotebookDir: a.cfg.NotebookDir,
				OutputDir:   a.cfg.OutputDir,
				StatePath:   statePath,
				Interval:    a.cfg.Interval,
			}

			for _, path := range st.Paths() {
				rec := st.Records[path]
				pending, err := st.HasChanged(path)
				if err != nil {
					pending = true
				}
				data.Rows = append(data.Rows, tui.StatusRow{
					Source:      path,
					Output:      rec.Output,
					Cells:       rec.Cells,
					Skipped:     rec.Skipped,
					ConvertedAt: rec.ConvertedAt,
					Pending:     pending,
				})
			}

			if logLines > 0 {
				data.LogLines, data.LastBatch, data.Converted = ParseLogFile(a.cfg.LogFile, logLines)
			}

			fmt.Fprint(cmd.OutOrStdout(), tui.RenderStatus(data))
			return nil
		},
	}

	cmd.Flags().IntVarP(&logLines, "log-lines", "n", 5, "number of recent log lines to show")

	return cmd
}
