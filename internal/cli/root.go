// Package cli implements the sessionsync agent command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/luminacoach/sessionsync/internal/config"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sessionsync",
	Short: "Sync the chat widget's local sessions to the session store",
	Long: `sessionsync watches the conversational widget's local session cache and
keeps the server-side session store consistent with it.

The widget writes one cache entry per conversation under a well-known key
prefix. The agent observes those entries (change events plus a periodic
scan), registers new conversations, and refreshes known ones when their
turn count changes.

Quick start:
  sessionsync run                   # run the sync agent
  sessionsync scan                  # one forced reconciliation pass
  sessionsync sessions              # list stored sessions
  sessionsync switch <session-id>   # resume a stored session`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
}

func loadSetup() (config.Config, *slog.Logger, error) {
	if configPath != "" {
		os.Setenv("SESSIONSYNC_CONFIG_PATH", configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	level := parseLogLevel(cfg.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
