package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gerunddev/nbimport/internal/config"
	"github.com/gerunddev/nbimport/internal/styles"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the nbimport configuration",
	}

	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.ConfigPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("config already exists at " + path + " (use --force to overwrite)")
			}

			if err := config.DefaultConfig().SaveFile(path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Wrote "+path))
			fmt.Fprintln(out, styles.DimStyle.Render("  Edit notebook_dir and output_dir to match your setup"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := struct {
				NotebookDir   string `yaml:"notebook_dir"`
				OutputDir     string `yaml:"output_dir"`
				LogFile       string `yaml:"log_file"`
				LogLevel      string `yaml:"log_level"`
				IDLength      int    `yaml:"id_length"`
				Indent        int    `yaml:"indent"`
				StrictVersion bool   `yaml:"strict_version"`
				Interval      string `yaml:"interval"`
				StateFile     string `yaml:"state_file"`
			}{
				NotebookDir:   a.cfg.NotebookDir,
				OutputDir:     a.cfg.OutputDir,
				LogFile:       a.cfg.LogFile,
				LogLevel:      a.cfg.LogLevel,
				IDLength:      a.cfg.IDLength,
				Indent:        a.cfg.Indent,
				StrictVersion: a.cfg.StrictVersion,
				Interval:      a.cfg.Interval.String(),
				StateFile:     config.StateFilePath(),
			}

			data, err := yaml.Marshal(shown)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
