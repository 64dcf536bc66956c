package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/ferry/pkg/ferry/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "ferry",
		Short: "Scan, delete, copy, move and search file trees",
		Long: `Ferry runs long filesystem operations with live progress.

Operations work in small steps and share the terminal politely: progress
appears only for operations that take a while, and every failure can be
retried, skipped, or skipped for the rest of the run.

Examples:
  ferry scan ~/Downloads            # Size summary of a tree
  ferry copy ~/photos /mnt/backup   # Copy with progress
  ferry move -n --on-error skip a b # Scripted move, skip failures
  ferry delete --yes ./build        # Delete without confirmation
  ferry search ~ --name '*.iso'     # Find files by name
  ferry history                     # Recent operations`,
		SilenceUsage:      true,
		PersistentPreRunE: initializeLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/ferry/config.yaml)")
	flags.BoolP("no-interactive", "n", false, "disable the TUI, answer issues by policy or prompt")
	flags.String("on-error", "", "answer failures with: ask, retry, skip, abort")
	flags.String("overwrite", "", "answer existing targets with: ask, all, skip, abort")
	flags.StringP("output", "o", "", "output format: "+formatList())
	flags.String("template", "", "Go template for -o template")
	flags.BoolP("quiet", "q", false, "minimal output")
	flags.BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("no_interactive", flags.Lookup("no-interactive"))
	_ = viper.BindPFlag("issues.on_error", flags.Lookup("on-error"))
	_ = viper.BindPFlag("issues.overwrite", flags.Lookup("overwrite"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("template", flags.Lookup("template"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	config.Configure(v, cfgFile)
	if err := config.Read(v); err != nil {
		printError("%v", err)
	}
}

// loadConfig decodes the effective configuration: defaults, file,
// environment and flags.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
