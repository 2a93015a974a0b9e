package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"fbinsights/pkg/config"
	"fbinsights/pkg/logger"
	"fbinsights/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	noLogo     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fbinsights",
	Short: "Fetch Facebook page and post analytics from the Graph API",
	Long: `fbinsights collects page level insights and per-post analytics for a
Facebook page through the Graph API (v19.0) and writes them to two JSON
files: a clean summary and the raw API responses.

Features:
  - Page insights for a day, week or 28 day window
  - Ten lifetime metrics for each recent post
  - Secure token storage using the system keychain
  - Long-lived token exchange
  - Optional rate limiting and retries
  - Run history in a local SQLite database

Running fbinsights without a subcommand is the same as 'fbinsights fetch'.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			logLevel = "error"
		}
		if !quiet && !noLogo && cmd.Name() != "help" && cmd.Name() != "version" {
			ui.PrintLogo()
		}
	},
	RunE: runFetch,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./fbinsights.yaml or ~/.config/fbinsights/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&noLogo, "no-logo", false, "do not print the banner")

	addFetchFlags(rootCmd)

	rootCmd.SetVersionTemplate(`fbinsights {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true
}

// loadConfig loads the configuration with the global flags applied and
// initializes the logger from it
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// exitCode ends the process. Tests replace it.
var exitCode = os.Exit

// fail prints msg and exits with status 1
func fail(msg string, args ...interface{}) {
	ui.PrintError(msg, args...)
	exitCode(1)
}
