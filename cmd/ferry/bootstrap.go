package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/ferry/pkg/ferry/config"
	"github.com/jamesainslie/ferry/pkg/ferry/logging"
	"github.com/jamesainslie/ferry/pkg/ferry/types"
	"github.com/spf13/cobra"
)

// initializeLogging is the PersistentPreRunE hook: it makes sure the ferry
// directories exist and starts file logging. With --verbose, debug records
// are mirrored to stderr.
func initializeLogging(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dirs := []string{config.DataDir(), config.StateDir()}
	if dir, err := config.ConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	if err := ensureDirs(dirs...); err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if logCfg.Path == "" {
		logCfg.Path = config.DefaultLogPath()
	}
	if getVerbose() && !getQuiet() {
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Get("cli").Debug("logging initialized", "path", logCfg.Path, "level", logCfg.Level)
	return nil
}

// ensureDirs creates each directory with its parents.
func ensureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// parseRotationConfig converts the config file rotation settings. An empty
// or invalid max_size falls back to the default.
func parseRotationConfig(cfg config.RotationConfig) logging.RotationConfig {
	out := logging.DefaultRotationConfig()
	if cfg.MaxSize != "" {
		if n, err := types.ParseSize(cfg.MaxSize); err == nil && n > 0 {
			out.MaxSize = n
		}
	}
	out.MaxAge = cfg.MaxAge
	out.MaxBackups = cfg.MaxBackups
	out.Daily = cfg.Daily
	return out
}
