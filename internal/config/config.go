package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// OutputExtension is appended to converted notebooks
const OutputExtension = ".bkr"

// Config represents the nbimport configuration
type Config struct {
	NotebookDir   string        `yaml:"notebook_dir" validate:"required"`
	OutputDir     string        `yaml:"output_dir,omitempty"`
	LogFile       string        `yaml:"log_file" validate:"required"`
	LogLevel      string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	IDLength      int           `yaml:"id_length" validate:"min=1,max=32"`
	Indent        int           `yaml:"indent" validate:"min=0,max=8"`
	StrictVersion bool          `yaml:"strict_version"`
	Interval      time.Duration `yaml:"-"` // Custom YAML handling below
}

// rawConfig is the on-disk shape; the interval is kept as a string
type rawConfig struct {
	NotebookDir   string `yaml:"notebook_dir"`
	OutputDir     string `yaml:"output_dir,omitempty"`
	LogFile       string `yaml:"log_file"`
	LogLevel      string `yaml:"log_level,omitempty"`
	IDLength      *int   `yaml:"id_length,omitempty"`
	Indent        *int   `yaml:"indent,omitempty"`
	StrictVersion bool   `yaml:"strict_version"`
	Interval      string `yaml:"interval"`
}

var validate = validator.New()

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		NotebookDir: home,
		OutputDir:   "", // Next to the source notebook
		LogFile:     filepath.Join(os.TempDir(), "nbimport.log"),
		LogLevel:    "info",
		IDLength:    6,
		Indent:      2,
		Interval:    30 * time.Second,
	}
}

// ConfigPath returns the path to the config file
// Uses ~/.config on all platforms for consistency
// Can be overridden for testing
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to XDG if home dir unavailable
		return filepath.Join(xdg.ConfigHome, "nbimport", "config.yaml")
	}
	return filepath.Join(home, ".config", "nbimport", "config.yaml")
}

// StateFilePath returns the path to the state file
// Uses platform-specific XDG data directory
// Can be overridden for testing
var StateFilePath = func() string {
	return filepath.Join(xdg.DataHome, "nbimport", "state.json")
}

// Load reads configuration from the config file
func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads configuration from path. Fields missing from the file
// keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := DefaultConfig()
	if raw.NotebookDir != "" {
		cfg.NotebookDir = raw.NotebookDir
	}
	cfg.OutputDir = raw.OutputDir
	if raw.LogFile != "" {
		cfg.LogFile = raw.LogFile
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(raw.LogLevel)
	}
	if raw.IDLength != nil {
		cfg.IDLength = *raw.IDLength
	}
	if raw.Indent != nil {
		cfg.Indent = *raw.Indent
	}
	cfg.StrictVersion = raw.StrictVersion

	if raw.Interval != "" {
		interval, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return nil, fmt.Errorf("invalid interval format '%s': %w", raw.Interval, err)
		}
		cfg.Interval = interval
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the config file
func (c *Config) Save() error {
	return c.SaveFile(ConfigPath())
}

// SaveFile writes configuration to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	idLength := c.IDLength
	indent := c.Indent
	raw := rawConfig{
		NotebookDir:   c.NotebookDir,
		OutputDir:     c.OutputDir,
		LogFile:       c.LogFile,
		LogLevel:      c.LogLevel,
		IDLength:      &idLength,
		Indent:        &indent,
		StrictVersion: c.StrictVersion,
		Interval:      c.Interval.String(),
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

// OutputPath returns where the converted form of source is written:
// next to it, or in OutputDir when one is set.
func (c *Config) OutputPath(source string) string {
	return c.OutputPathUnder("", source)
}

// OutputPathUnder is OutputPath for a source found by scanning root. With
// an OutputDir, the source's directory relative to root is kept so that
// same-named notebooks in different subdirectories do not collide.
func (c *Config) OutputPathUnder(root, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + OutputExtension
	if c.OutputDir == "" {
		return filepath.Join(filepath.Dir(source), base)
	}

	if root != "" {
		rel, err := filepath.Rel(root, filepath.Dir(source))
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.Join(c.OutputDir, rel, base)
		}
	}
	return filepath.Join(c.OutputDir, base)
}

// ExpandPaths expands any ~ or relative paths to absolute paths
func (c *Config) ExpandPaths() error {
	var err error

	c.NotebookDir, err = expandPath(c.NotebookDir)
	if err != nil {
		return fmt.Errorf("failed to expand notebook_dir: %w", err)
	}

	c.OutputDir, err = expandPath(c.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to expand output_dir: %w", err)
	}

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	// Expand ~ to home directory
	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[1:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}
