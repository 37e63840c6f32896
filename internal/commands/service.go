package commands

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gerunddev/nbimport/internal/styles"
)

// serviceName is the launchd label and systemd unit name
const serviceName = "nbimport"

// ServiceFile returns where the service definition for goos lives under
// home and its content. The service runs a plain batch watch.
func ServiceFile(goos, home, execPath, configPath string) (string, string, error) {
	args := []string{execPath, "batch", "--watch", "--plain"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	switch goos {
	case "darwin":
		path := filepath.Join(home, "Library", "LaunchAgents", "com."+serviceName+".plist")
		programArgs := ""
		for _, arg := range args {
			programArgs += fmt.Sprintf("\t\t<string>%s</string>\n", arg)
		}
		content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>com.%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>/tmp/%s.out.log</string>
	<key>StandardErrorPath</key>
	<string>/tmp/%s.err.log</string>
</dict>
</plist>
`, serviceName, programArgs, serviceName, serviceName)
		return path, content, nil

	case "linux":
		path := filepath.Join(home, ".config", "systemd", "user", serviceName+".service")
		execStart := ""
		for i, arg := range args {
			if i > 0 {
				execStart += " "
			}
			execStart += arg
		}
		content := fmt.Sprintf(`[Unit]
Description=nbimport - convert IPython notebooks to Beaker notebooks

[Service]
Type=simple
ExecStart=%s
Restart=always
RestartSec=10

[Install]
WantedBy=default.target
`, execStart)
		return path, content, nil

	default:
		return "", "", fmt.Errorf("unsupported operating system: %s (supported: darwin, linux)", goos)
	}
}

func newServiceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run batch --watch as a user service",
	}

	cmd.AddCommand(newServiceInstallCmd(a), newServiceUninstallCmd(a))
	return cmd
}

func newServiceInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "install",
		Short:       "Write a launchd or systemd service file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			execPath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to get executable path: %w", err)
			}

			path, content, err := ServiceFile(runtime.GOOS, home, execPath, a.configPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create service directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write service file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Service file created: "+path))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "To enable the service:")
			if runtime.GOOS == "darwin" {
				fmt.Fprintln(out, styles.DimStyle.Render("  launchctl load "+path))
			} else {
				fmt.Fprintln(out, styles.DimStyle.Render("  systemctl --user daemon-reload"))
				fmt.Fprintln(out, styles.DimStyle.Render("  systemctl --user enable --now "+serviceName+".service"))
			}
			return nil
		},
	}
}

func newServiceUninstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "uninstall",
		Short:       "Stop the service and remove its service file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}

			path, _, err := ServiceFile(runtime.GOOS, home, "", "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, styles.WarningStyle.Render("⚠ Service file not found: "+path))
				return nil
			}

			// Stopping may fail if the service was never started
			if runtime.GOOS == "darwin" {
				if err := exec.Command("launchctl", "unload", path).Run(); err != nil {
					fmt.Fprintln(out, styles.WarningStyle.Render("⚠ Could not unload service: "+err.Error()))
				}
			} else {
				if err := exec.Command("systemctl", "--user", "disable", "--now", serviceName+".service").Run(); err != nil {
					fmt.Fprintln(out, styles.WarningStyle.Render("⚠ Could not disable service: "+err.Error()))
				}
			}

			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove service file: %w", err)
			}

			fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Service file removed: "+path))
			return nil
		},
	}
}
