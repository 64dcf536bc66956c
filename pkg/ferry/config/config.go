package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/ferry/pkg/ferry/tuner"
	"github.com/jamesainslie/ferry/pkg/ferry/types"
	"github.com/spf13/viper"
)

// AppName names the config, state and data directories.
const AppName = "ferry"

// ErrInvalidPolicy is returned by Validate for unknown issue policies.
var ErrInvalidPolicy = errors.New("invalid issue policy")

// EngineConfig tunes operation slicing and transfers.
type EngineConfig struct {
	SliceBudget   time.Duration `mapstructure:"slice_budget"`
	ProgressDelay time.Duration `mapstructure:"progress_delay"`
	ChunkSize     string        `mapstructure:"chunk_size"`
}

// LinkConfig configures the symlink helper used by copy and move.
type LinkConfig struct {
	Helper  string        `mapstructure:"helper"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// IssuesConfig sets how issues are answered without an operator.
type IssuesConfig struct {
	OnError    string `mapstructure:"on_error"`
	Overwrite  string `mapstructure:"overwrite"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// JournalConfig configures the operation history.
type JournalConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// Config is the application configuration.
type Config struct {
	Output  string        `mapstructure:"output"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Link    LinkConfig    `mapstructure:"link"`
	Issues  IssuesConfig  `mapstructure:"issues"`
	Journal JournalConfig `mapstructure:"journal"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Configure prepares v: config file lookup (cfgFile wins when set), the
// FERRY_ environment prefix and every default.
func Configure(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("FERRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output", DefaultOutput)

	v.SetDefault("engine.slice_budget", DefaultSliceBudget)
	v.SetDefault("engine.progress_delay", DefaultProgressDelay)
	v.SetDefault("engine.chunk_size", DefaultChunkSize)

	v.SetDefault("link.helper", DefaultLinkHelper)
	v.SetDefault("link.timeout", DefaultLinkTimeout)

	v.SetDefault("issues.on_error", DefaultOnError)
	v.SetDefault("issues.overwrite", DefaultOverwrite)
	v.SetDefault("issues.max_retries", DefaultMaxRetries)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", DefaultJournalPath())
	v.SetDefault("journal.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // empty means DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"operation": "info",
		"journal":   "warn",
		"linker":    "info",
		"cli":       "info",
	})
}

// Read loads the config file into v. A missing file is not an error unless
// it was named explicitly.
func Read(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("failed to read config file: %w", err)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	path, err := ExpandPath(cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	cfg.Journal.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the configuration from the default locations and the
// environment.
func Load() (*Config, error) {
	v := viper.New()
	Configure(v, "")
	if err := Read(v); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	if !slices.Contains(ErrorPolicies, c.Issues.OnError) {
		return fmt.Errorf("%w: issues.on_error=%q (want one of %s)",
			ErrInvalidPolicy, c.Issues.OnError, strings.Join(ErrorPolicies, ", "))
	}
	if !slices.Contains(OverwritePolicies, c.Issues.Overwrite) {
		return fmt.Errorf("%w: issues.overwrite=%q (want one of %s)",
			ErrInvalidPolicy, c.Issues.Overwrite, strings.Join(OverwritePolicies, ", "))
	}
	if _, err := c.ChunkBytes(); err != nil {
		return err
	}
	if c.Issues.MaxRetries < 0 {
		return fmt.Errorf("issues.max_retries must not be negative: %d", c.Issues.MaxRetries)
	}
	return nil
}

// ChunkBytes returns engine.chunk_size in bytes, at most MaxChunkBytes.
// ChunkAuto sizes the buffer from the memory of the host.
func (c *Config) ChunkBytes() (int, error) {
	if strings.EqualFold(strings.TrimSpace(c.Engine.ChunkSize), ChunkAuto) {
		return tuner.Auto().ChunkSize, nil
	}
	n, err := types.ParseSize(c.Engine.ChunkSize)
	if err != nil {
		return 0, fmt.Errorf("engine.chunk_size: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("engine.chunk_size: %w: must be positive", types.ErrInvalidSize)
	}
	if n > MaxChunkBytes {
		return 0, fmt.Errorf("engine.chunk_size: %w: %s exceeds %s",
			types.ErrInvalidSize, c.Engine.ChunkSize, types.FormatSize(MaxChunkBytes))
	}
	return int(n), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/ferry, falling back to ~/.config/ferry.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a commented default config file and returns its
// path. An existing file is left alone.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	content := fmt.Sprintf(`# ferry configuration

# Default output format: pretty, plain, json, jsonl, yaml, csv, tsv, markdown, paths
output: %s

engine:
  # Work time per slice before an operation yields to others
  slice_budget: %s
  # Operations shorter than this never show progress
  progress_delay: %s
  # Copy buffer size up to 1MiB, or "auto" to size it from available memory
  chunk_size: %s

link:
  # Helper used to recreate symbolic links
  helper: %s
  timeout: %s

# How issues are answered with --no-interactive
issues:
  on_error: %s   # ask, retry, skip, abort
  overwrite: %s  # ask, all, skip, abort
  max_retries: %d

journal:
  enabled: true
  path: %s
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # empty means $XDG_STATE_HOME/ferry/ferry.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30
    max_backups: 5
    daily: true
  components:
    operation: info
    journal: warn
    linker: info
    cli: info
`, DefaultOutput, DefaultSliceBudget, DefaultProgressDelay, DefaultChunkSize,
		DefaultLinkHelper, DefaultLinkTimeout, DefaultOnError, DefaultOverwrite, DefaultMaxRetries,
		DefaultJournalPath(), DefaultRetentionDays)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/ferry.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// StateDir returns $XDG_STATE_HOME/ferry.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DefaultJournalPath returns the Badger directory of the journal.
func DefaultJournalPath() string {
	return filepath.Join(DataDir(), "journal")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "ferry.log")
}
