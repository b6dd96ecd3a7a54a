package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mender/internal/config"
	"mender/internal/slogutil"
	"mender/internal/version"
)

// errExitDegraded signals a non-fatal failure: the response was already
// printed and only the exit code should reflect it.
var errExitDegraded = errors.New("source is not structurally valid")

var (
	// outputFlag is the CLI --output flag value
	outputFlag string
	// verboseFlag raises log verbosity (-v info, -vv debug)
	verboseFlag int
	// quietFlag suppresses all log output below error
	quietFlag bool
	// logFileFlag redirects logs to a file under .mender/logs/
	logFileFlag string
)

var rootCmd = &cobra.Command{
	Use:   "mender",
	Short: "Mender - source recovery and reconstruction",
	Long: `Mender recovers structure from broken source files through staged parsing,
retrieves prior generations from version control, and reconstructs a valid
file guided by the most stable historical template.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("mender version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "human",
		"Output format: human, json, or yaml")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v",
		"Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"Suppress log output below errors")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "",
		"Append logs to this file instead of stderr")
}

// newLogger builds the command logger: verbosity flags beat the
// configured level, and --log-file redirects output away from stderr.
// The log file stays open for the life of the process.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg != nil {
		level = slogutil.LevelFromString(cfg.Logging.Level)
	}
	if quietFlag || verboseFlag > 0 {
		level = slogutil.LevelFromVerbosity(verboseFlag, quietFlag)
	}

	if logFileFlag != "" {
		logger, _, err := slogutil.NewFileLogger(logFileFlag, level)
		if err == nil {
			return logger
		}
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file: %v\n", err)
	}
	return slogutil.NewLogger(os.Stderr, level)
}

// loadConfig resolves the repo root from the working directory and
// loads configuration for it. A missing config file yields defaults.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(cwd)
}
