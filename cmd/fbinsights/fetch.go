package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fbinsights/pkg/analytics"
	"fbinsights/pkg/auth"
	"fbinsights/pkg/config"
	"fbinsights/pkg/graph"
	"fbinsights/pkg/history"
	"fbinsights/pkg/logger"
	"fbinsights/pkg/storage"
	"fbinsights/pkg/ui"
	"fbinsights/pkg/ui/tui"

	"github.com/spf13/cobra"
)

var (
	pageID      string
	accessToken string
	period      string
	postLimit   int
	outputDir   string
	accountName string
	timeout     time.Duration
	rateLimit   int
	retries     int
	withHistory bool
	useTUI      bool
	notify      bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch page and post analytics",
	Long: `Fetch page level insights and the analytics of the most recent posts.

Credentials are taken from, in order:
  - --page-id and --access-token
  - the configuration file and FBINSIGHTS_* environment variables
  - the account named with --account, or the default stored account

Two files are written to the output directory:
  facebook_analytics.json           clean summary
  facebook_analytics_all_data.json  raw API responses

Examples:
  fbinsights fetch --period week --limit 5
  fbinsights fetch --account mypage --tui
  fbinsights fetch --page-id 1234567890 --access-token EAAB... --history`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addFetchFlags(fetchCmd)
}

// addFetchFlags registers the fetch flags. The root command carries them
// too since it runs a fetch by default.
func addFetchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&pageID, "page-id", "", "Facebook page ID")
	f.StringVar(&accessToken, "access-token", "", "page access token")
	f.StringVar(&period, "period", "", "page insights window (day, week, days_28)")
	f.IntVarP(&postLimit, "limit", "n", 0, "number of recent posts to analyze")
	f.StringVarP(&outputDir, "output", "o", "", "output directory")
	f.StringVarP(&accountName, "account", "a", "", "stored account to use")
	f.DurationVar(&timeout, "timeout", 0, "HTTP request timeout")
	f.IntVar(&rateLimit, "rate-limit", 0, "enable rate limiting at this many requests per minute")
	f.IntVar(&retries, "retries", 0, "enable retries with this many attempts")
	f.BoolVar(&withHistory, "history", false, "record the run in the history database")
	f.BoolVar(&useTUI, "tui", false, "show live progress in a terminal interface")
	f.BoolVar(&notify, "notify", false, "send a desktop notification when done")
}

func fetchFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{
		"page-id":      pageID,
		"access-token": accessToken,
		"period":       period,
		"limit":        postLimit,
		"output":       outputDir,
		"timeout":      timeout,
		"rate-limit":   rateLimit,
		"retries":      retries,
	}
	if cmd.Flags().Changed("history") {
		flags["history"] = withHistory
	}
	return flags
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(fetchFlags(cmd))
	if err != nil {
		fail("Failed to load configuration", err)
	}

	if err := resolveCredentials(cfg); err != nil {
		logger.WithError(err).Error("No usable page credentials")
		ui.PrintError("Missing page credentials", err)
		fmt.Fprintln(ui.Output, "\nProvide them with --page-id and --access-token, the FBINSIGHTS_PAGE_ID and")
		fmt.Fprintln(ui.Output, "FBINSIGHTS_ACCESS_TOKEN variables, or store them with 'fbinsights auth login'.")
		exitCode(1)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !quiet && !useTUI {
		ui.PrintInfo("Page", cfg.Facebook.PageID)
		ui.PrintInfo("Period", cfg.Fetch.Period)
		ui.PrintInfo("Posts", fmt.Sprintf("%d", cfg.Fetch.PostLimit))
	}

	result, err := collect(ctx, cancel, cfg)
	if notify {
		posts := 0
		if result != nil {
			posts = len(result.Clean.ComprehensivePostAnalytics)
		}
		if nerr := ui.NewNotifier().RunFinished(cfg.Facebook.PageID, posts, err); nerr != nil {
			logger.WithError(nerr).Debug("Desktop notification failed")
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Cancelled")
		} else {
			logger.WithError(err).Error("Analytics collection failed")
			ui.PrintError("Analytics collection failed", err)
		}
		exitCode(1)
	}

	files, err := writeOutputs(ctx, cfg, result)
	if err != nil {
		fail("Failed to save results", err)
	}

	if quiet {
		return nil
	}

	fmt.Fprintln(ui.Output)
	fmt.Fprintln(ui.Output, ui.RenderReport(result.Clean))
	if n := result.UnavailableMetricCount(); n > 0 {
		ui.PrintWarning(fmt.Sprintf("%d post metrics were not reported by the API and are shown as 0", n))
	}
	if result.PageInsightsErr != nil {
		ui.PrintWarning("Page insights unavailable", result.PageInsightsErr)
	}
	if result.PostsErr != nil {
		ui.PrintWarning("Post list unavailable", result.PostsErr)
	}
	ui.PrintSuccess(fmt.Sprintf("Saved %s and %s", files.Summary, files.Raw))
	return nil
}

// resolveCredentials completes the configured credentials from the
// credential stores and rejects placeholders. An explicit --account wins
// over the configuration.
func resolveCredentials(cfg *config.Config) error {
	creds := graph.Credentials{PageID: cfg.Facebook.PageID, AccessToken: cfg.Facebook.AccessToken}
	if accountName == "" && creds.Validate() == nil {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	var stored *auth.PageCredentials
	if accountName != "" {
		stored, err = manager.Retrieve(accountName)
	} else {
		stored, err = manager.RetrieveDefault()
	}

	switch {
	case err == nil:
		if stored.Expired() {
			ui.PrintWarning("The stored token for " + stored.Name + " has expired, renew it with: fbinsights auth exchange " + stored.Name)
		}
		logger.WithField("account", stored.Name).Debug("Using stored credentials")
		if accountName != "" || creds.PageID == "" {
			creds.PageID = stored.PageID
		}
		if accountName != "" || creds.AccessToken == "" {
			creds.AccessToken = stored.AccessToken
		}
	case accountName != "":
		return err
	}

	if err := creds.Validate(); err != nil {
		return err
	}
	cfg.Facebook.PageID = creds.PageID
	cfg.Facebook.AccessToken = creds.AccessToken
	return nil
}

// collect runs the Collector, inside the terminal interface when requested
func collect(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) (*analytics.Result, error) {
	if !useTUI {
		collector, err := newCollector(cfg, logger.GetLogger())
		if err != nil {
			return nil, err
		}
		return collector.Run(ctx)
	}

	view := tui.New(cfg.Facebook.PageID, cfg.Fetch.Period)
	log, err := logger.NewWithWriter(&cfg.Logging, view.LogWriter())
	if err != nil {
		return nil, err
	}
	prev := logger.GetLogger()
	logger.SetLogger(log)
	defer logger.SetLogger(prev)

	collector, err := newCollector(cfg, log)
	if err != nil {
		return nil, err
	}
	collector.SetObserver(view)

	var result *analytics.Result
	err = view.Run(cancel, func() error {
		var runErr error
		result, runErr = collector.Run(ctx)
		if runErr == nil {
			view.LogInfo("Collected %d posts in %s", len(result.Clean.ComprehensivePostAnalytics), result.Duration.Round(time.Millisecond))
		}
		return runErr
	})
	return result, err
}

func newCollector(cfg *config.Config, log logger.Logger) (*analytics.Collector, error) {
	client, err := graph.NewClientFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	return analytics.New(client, analytics.OptionsFromConfig(cfg), log), nil
}

// writeOutputs writes both report files and records the run when history
// is enabled. A history failure is reported but does not fail the run.
func writeOutputs(ctx context.Context, cfg *config.Config, result *analytics.Result) (*storage.Files, error) {
	manager, err := storage.NewManager(cfg.Output)
	if err != nil {
		return nil, err
	}
	files, err := manager.WriteReports(result)
	if err != nil {
		return nil, err
	}
	logger.WithFields(map[string]interface{}{
		"summary": files.Summary,
		"raw":     files.Raw,
	}).Info("Analytics saved")

	if !cfg.History.Enabled {
		return files, nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		ui.PrintWarning("Run history unavailable", err)
		return files, nil
	}
	defer store.Close()

	id, err := store.RecordRun(ctx, result)
	if err != nil {
		logger.WithError(err).Warn("Failed to record run")
		ui.PrintWarning("Failed to record run", err)
		return files, nil
	}
	logger.WithField("run_id", id).Debug("Run recorded")
	return files, nil
}
