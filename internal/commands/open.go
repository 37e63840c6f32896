package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gerunddev/nbimport/internal/beaker"
	"github.com/gerunddev/nbimport/internal/config"
	"github.com/gerunddev/nbimport/internal/importer"
	"github.com/gerunddev/nbimport/internal/logger"
	"github.com/gerunddev/nbimport/internal/plugin"
	"github.com/gerunddev/nbimport/internal/styles"
	"github.com/gerunddev/nbimport/internal/tui"
)

// ChooseFunc asks the user for a file under dir
type ChooseFunc func(ctx context.Context, dir, ext string) (string, error)

// cliHost is the terminal host the plugin runs against
type cliHost struct {
	cfg    *config.Config
	reg    *importer.Registry
	log    *logger.Logger
	out    io.Writer
	choose ChooseFunc
}

var _ plugin.Services = (*cliHost)(nil)

func (h *cliHost) HomeDirectory(ctx context.Context) (string, error) {
	if h.cfg.NotebookDir != "" {
		return h.cfg.NotebookDir, nil
	}
	return os.UserHomeDir()
}

func (h *cliHost) ChooseFile(ctx context.Context, dir, ext string) (string, error) {
	return h.choose(ctx, dir, ext)
}

// OpenNotebook imports path through the importer registered under token
// and writes the Beaker notebook next to it
func (h *cliHost) OpenNotebook(ctx context.Context, path, token string) error {
	start := time.Now()
	h.log.ConversionStarted(path)

	data, err := os.ReadFile(path)
	if err != nil {
		h.log.ImportFailed(path, err)
		return fmt.Errorf("failed to read notebook: %w", err)
	}

	nb, stats, err := h.reg.ImportWithStats(token, data)
	if err != nil {
		h.log.ImportFailed(path, err)
		return fmt.Errorf("failed to import %s: %w", path, err)
	}

	dest := h.cfg.OutputPath(path)
	if err := beaker.WriteFile(dest, nb, h.cfg.Indent); err != nil {
		h.log.ImportFailed(path, err)
		return err
	}

	h.log.ConversionCompleted(path, dest, len(nb.Cells), stats.Skipped, time.Since(start))
	fmt.Fprintln(h.out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Opened %s", path)))
	fmt.Fprintln(h.out, styles.DimStyle.Render("  Beaker notebook written to "+dest))
	if stats.Skipped > 0 {
		fmt.Fprintln(h.out, styles.WarningStyle.Render(fmt.Sprintf("  %d unsupported cell(s) skipped", stats.Skipped)))
	}
	return nil
}

func newOpenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open [notebook.ipynb]",
		Short: "Open an IPython notebook through the File > Open menu entry",
		Long: `Open runs the "Open... IPython (.ipynb)" menu entry: it shows a file chooser
rooted at notebook_dir and imports the chosen notebook. Passing a path skips
the chooser.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			host := &cliHost{
				cfg: a.cfg,
				reg: reg,
				log: a.log,
				out: cmd.OutOrStdout(),
				choose: func(ctx context.Context, dir, ext string) (string, error) {
					return tui.ChooseFile(ctx, dir, ext, tui.Previewer(a.ipynbImporter()))
				},
			}

			if len(args) == 1 {
				return host.OpenNotebook(cmd.Context(), args[0], importer.TokenIPynb)
			}
			return runMenuItem(cmd.Context(), host, plugin.MenuItemID)
		},
	}

	return cmd
}

// runMenuItem builds the plugin menu against svc and activates the item
func runMenuItem(ctx context.Context, svc plugin.Services, id string) error {
	groups, err := plugin.MenuItems(ctx, svc)
	if err != nil {
		return err
	}

	item, ok := plugin.FindItem(groups, id)
	if !ok {
		return errors.New("menu item not found: " + id)
	}
	return item.Action(ctx)
}
