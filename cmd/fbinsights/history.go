package main

import (
	"fmt"
	"strconv"
	"time"

	"fbinsights/pkg/history"
	"fbinsights/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyRun   int64
	pruneAge     time.Duration
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	Long: `Show runs recorded in the history database. Runs are recorded by
'fbinsights fetch --history' or with history.enabled in the config file.`,
	Example: `  fbinsights history -n 5
  fbinsights history --run 12
  fbinsights history --prune 720h`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	historyCmd.Flags().Int64Var(&historyRun, "run", 0, "show the posts of one run")
	historyCmd.Flags().DurationVar(&pruneAge, "prune", 0, "delete runs older than this")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(nil)
	if err != nil {
		fail("Failed to load configuration", err)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		fail("Failed to open history", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if pruneAge > 0 {
		n, err := store.Prune(ctx, pruneAge)
		if err != nil {
			fail("Failed to prune history", err)
		}
		ui.PrintSuccess(fmt.Sprintf("Removed %d runs older than %s", n, pruneAge))
		return
	}

	if historyRun > 0 {
		posts, err := store.RunPosts(ctx, historyRun)
		if err != nil {
			fail("Failed to read run", err)
		}
		ui.PrintInfo("Run", strconv.FormatInt(historyRun, 10))
		if len(posts) == 0 {
			ui.PrintWarning("No posts recorded for this run")
			return
		}
		fmt.Println(ui.RenderRunPosts(posts))
		return
	}

	runs, err := store.RecentRuns(ctx, historyLimit)
	if err != nil {
		fail("Failed to read history", err)
	}
	if len(runs) == 0 {
		ui.PrintWarning("No runs recorded in " + cfg.History.Path)
		return
	}
	fmt.Println(ui.RenderRuns(runs))
}
