// Package commands implements the nbimport command line.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gerunddev/nbimport/internal/config"
	"github.com/gerunddev/nbimport/internal/convert"
	"github.com/gerunddev/nbimport/internal/idgen"
	"github.com/gerunddev/nbimport/internal/importer"
	"github.com/gerunddev/nbimport/internal/logger"
	"github.com/gerunddev/nbimport/internal/plugin"
	"github.com/gerunddev/nbimport/internal/styles"
)

// skipConfig marks commands that run without loading the config file
const skipConfig = "skip-config"

// app is the state shared by every subcommand
type app struct {
	version    string
	configPath string
	verbose    bool

	cfg     *config.Config
	log     *logger.Logger
	cleanup func()
}

// NewRootCmd builds the nbimport command tree. Callers that execute it
// themselves own closing the log file; Execute does that.
func NewRootCmd(version string) *cobra.Command {
	root, _ := newRoot(version)
	return root
}

func newRoot(version string) (*cobra.Command, *app) {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "nbimport",
		Short: "Convert IPython notebooks to Beaker notebooks",
		Long: `nbimport converts legacy IPython (nbformat 3) notebooks into Beaker
notebooks. Notebooks can be converted one at a time, in batches over a
directory, or picked interactively through the File > Open menu entry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] == "true" {
				a.log = logger.Discard()
				return nil
			}
			return a.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ~/.config/nbimport/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "also write logs to stderr")

	root.AddCommand(
		newConvertCmd(a),
		newBatchCmd(a),
		newOpenCmd(a),
		newDiffCmd(a),
		newStatusCmd(a),
		newConfigCmd(a),
		newServiceCmd(a),
		newVersionCmd(a),
	)

	return root, a
}

// Execute runs the command line and returns the process exit code
func Execute(version string) int {
	if err := execute(newRoot(version)); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("✗ "+err.Error()))
		return 1
	}
	return 0
}

// execute runs root and closes the log file whether or not the command
// failed
func execute(root *cobra.Command, a *app) error {
	defer a.close()
	return root.Execute()
}

func (a *app) load(stderr io.Writer) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := logger.ParseLevel(a.cfg.LogLevel)
	var extra []io.Writer
	if a.verbose {
		extra = append(extra, stderr)
	}

	fileLog, cleanup, err := logger.NewFileLogger(a.cfg.LogFile, level, extra...)
	if err != nil {
		// Fall back to stderr so a bad log path never blocks a conversion
		a.log = logger.NewWithLevel(stderr, level)
		a.log.Warn("failed to open log file", "path", a.cfg.LogFile, "error", err)
	} else {
		a.log = fileLog
		a.cleanup = cleanup
	}

	a.log.ConfigLoaded(a.cfg.NotebookDir, a.cfg.OutputDir, a.cfg.StrictVersion)
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// converter returns a converter using the configured id length
func (a *app) converter() *convert.Converter {
	return convert.New(
		convert.WithIDGenerator(idgen.NewRandom(a.cfg.IDLength)),
		convert.WithLogger(a.log),
	)
}

// ipynbImporter returns the importer for direct conversions
func (a *app) ipynbImporter() *importer.IPynb {
	return importer.NewIPynb(a.converter(), a.cfg.StrictVersion)
}

// registry returns a registry with the IPython importer registered
func (a *app) registry() (*importer.Registry, error) {
	reg := importer.NewRegistry()
	if err := plugin.Register(reg, a.converter(), a.cfg.StrictVersion); err != nil {
		return nil, err
	}
	return reg, nil
}
