package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trash/internal/config"
	"trash/internal/exitcodes"
	"trash/internal/history"
)

var errNoQuery = errors.New("no query given")

type queryOptions struct {
	configPath string
	dbPath     string
	recent     int
	items      int64
	path       string
	stats      bool
	days       int
	prune      int
	jsonOutput bool
}

func main() {
	cmd := newQueryCmd()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errNoQuery) {
			fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: %v\n", err)
		}
		os.Exit(exitcodes.FromError(err))
	}
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "trash-history",
		Short: "Query the history of trash runs",
		Example: `  trash-history --recent 10              # Show the 10 most recent runs
  trash-history --items 42               # List what run 42 moved to the trash
  trash-history --path '/home/me/%.log'  # Runs that trashed matching paths
  trash-history --stats --days 7         # Statistics for the last week
  trash-history --prune 90               # Forget runs older than 90 days`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Config file (default is $XDG_CONFIG_HOME/trash/config.yaml)")
	f.StringVar(&opts.dbPath, "db", "", "Path to the history database (overrides the config)")
	f.IntVar(&opts.recent, "recent", 0, "Show N most recent runs")
	f.Int64Var(&opts.items, "items", 0, "Show the items of run ID")
	f.StringVar(&opts.path, "path", "", "Show runs that trashed a path matching this pattern (SQL LIKE syntax)")
	f.BoolVar(&opts.stats, "stats", false, "Show run statistics")
	f.IntVar(&opts.days, "days", 30, "Number of days for statistics")
	f.IntVar(&opts.prune, "prune", 0, "Delete runs older than N days")
	f.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func resolveDBPath(opts *queryOptions) (string, error) {
	if opts.dbPath != "" {
		return opts.dbPath, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultPath())
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", exitcodes.ErrInvalidConfig, err)
	}
	return cfg.History.Path, nil
}

func runQuery(cmd *cobra.Command, opts *queryOptions) error {
	out := cmd.OutOrStdout()

	if opts.recent <= 0 && opts.items <= 0 && opts.path == "" && !opts.stats && opts.prune <= 0 {
		fmt.Fprint(out, cmd.UsageString())
		return errNoQuery
	}

	dbPath, err := resolveDBPath(opts)
	if err != nil {
		return err
	}

	db, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: Failed to close database: %v\n", err)
		}
	}()

	switch {
	case opts.prune > 0:
		return prune(out, db, opts.prune, opts.jsonOutput)
	case opts.stats:
		return showStats(out, db, opts.days, opts.jsonOutput)
	case opts.items > 0:
		return showItems(out, db, opts.items, opts.jsonOutput)
	case opts.path != "":
		return showByPath(out, db, opts.path, opts.jsonOutput)
	default:
		return showRecent(out, db, opts.recent, opts.jsonOutput)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func prune(w io.Writer, db *history.DB, days int, jsonOutput bool) error {
	n, err := db.PruneOlderThan(days)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	if n > 0 {
		if err := db.Vacuum(); err != nil {
			return fmt.Errorf("failed to vacuum history: %w", err)
		}
	}

	if jsonOutput {
		return printJSON(w, map[string]int64{"pruned_runs": n})
	}
	fmt.Fprintf(w, "Pruned %d runs older than %d days\n", n, days)
	return nil
}

func showStats(w io.Writer, db *history.DB, days int, jsonOutput bool) error {
	stats, err := db.Stats(days)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	if jsonOutput {
		return printJSON(w, stats)
	}

	fmt.Fprintf(w, "Trash Statistics (Last %d days)\n", days)
	fmt.Fprintf(w, "Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Total Runs:     %d\n", stats.TotalRuns)
	fmt.Fprintf(w, "Succeeded:      %d\n", stats.Succeeded)
	fmt.Fprintf(w, "Failed:         %d\n", stats.Failed)
	fmt.Fprintf(w, "Aborted:        %d\n", stats.Aborted)
	fmt.Fprintf(w, "Items Trashed:  %d\n", stats.ItemsTrashed)

	if len(stats.ByTier) > 0 {
		tiers := make([]string, 0, len(stats.ByTier))
		for tier := range stats.ByTier {
			tiers = append(tiers, tier)
		}
		sort.Strings(tiers)

		fmt.Fprintln(w, "\nBy Confirmation:")
		for _, tier := range tiers {
			fmt.Fprintf(w, "  %-15s %d\n", tier, stats.ByTier[tier])
		}
	}
	return nil
}

func showRecent(w io.Writer, db *history.DB, limit int, jsonOutput bool) error {
	runs, err := db.RecentRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to get recent runs: %w", err)
	}

	if jsonOutput {
		return printJSON(w, runs)
	}
	printRuns(w, runs)
	return nil
}

func showByPath(w io.Writer, db *history.DB, pattern string, jsonOutput bool) error {
	runs, err := db.RunsByPath(pattern)
	if err != nil {
		return fmt.Errorf("failed to query by path: %w", err)
	}

	if jsonOutput {
		return printJSON(w, runs)
	}

	fmt.Fprintf(w, "Runs matching path pattern: %s\n\n", pattern)
	printRuns(w, runs)
	return nil
}

func showItems(w io.Writer, db *history.DB, id int64, jsonOutput bool) error {
	run, err := db.RunWithItems(id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(w, run)
	}

	fmt.Fprintf(w, "Run %d at %s (%s, %s):\n", run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Tier, result(*run))
	for _, item := range run.Items {
		fmt.Fprintf(w, " - %s\n", item)
	}
	return nil
}

func result(r history.Run) string {
	switch {
	case r.Succeeded:
		return "ok"
	case r.Aborted:
		return fmt.Sprintf("aborted, code %d", r.ResultCode)
	default:
		return fmt.Sprintf("failed, code %d", r.ResultCode)
	}
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No records found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tStarted\tItems\tTier\tForced\tResult")
	_, _ = fmt.Fprintln(tw, "--\t-------\t-----\t----\t------\t------")

	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%t\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.ItemCount, r.Tier, r.Forced, result(r))
	}
	_ = tw.Flush()
}
