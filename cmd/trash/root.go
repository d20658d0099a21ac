package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trash/internal/config"
	"trash/internal/console"
	"trash/internal/exitcodes"
	"trash/internal/expand"
	"trash/internal/history"
	"trash/internal/logging"
	"trash/internal/metrics"
	"trash/internal/orchestrator"
	"trash/internal/recycle"
	"trash/internal/safety"
)

type rootOptions struct {
	force      bool
	verbosity  int
	configPath string
}

// execute runs cmd and returns the process exit code
func execute(cmd *cobra.Command, code *int) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return exitcodes.FromError(err)
	}
	return *code
}

func newRootCmd(code *int) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "trash [flags] <file or directory> [...]",
		Short: "Move files and directories to the trash",
		Long: `trash moves files and directories to the recycle bin instead of deleting them.

Patterns may use * and ? in their last path component. A single item is
trashed without asking, up to 150 items need a y/N answer, and larger
batches need 'confirm' typed twice. --force skips every prompt.`,
		Example: `  trash file.txt          trash a single file (no confirmation)
  trash folder/           trash a single folder (no confirmation)
  trash *.log             trash several files (asks first)
  trash -f *              trash everything here without asking
  trash -- -odd-name      trash a file whose name starts with a dash`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := run(cmd, opts, args)
			*code = c
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Skip every confirmation prompt")
	cmd.Flags().CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (default is $XDG_CONFIG_HOME/trash/config.yaml)")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w (put -- before names that start with a dash)", err)
	})

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultPath())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", exitcodes.ErrInvalidConfig, err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, opts *rootOptions, args []string) (int, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return exitcodes.InvalidConfig, err
	}

	logCloser, err := logging.Setup(logging.Options{
		Verbosity:    opts.verbosity,
		Dir:          config.StateDir(),
		RotationDays: cfg.Logging.RotationDays,
		Console:      cmd.ErrOrStderr(),
	})
	if err != nil {
		// The log file is optional; console logging still works.
		log.Warn().Err(err).Msg("Log file unavailable")
	}
	defer logCloser.Close()

	con := attachConsole(cmd)
	defer con.Detach()

	orchOpts := []orchestrator.Option{
		orchestrator.WithBulkThreshold(cfg.Confirm.BulkThreshold),
		orchestrator.WithPreviewLimit(cfg.Preview.Limit),
		orchestrator.WithUsage(cmd.UsageString()),
		orchestrator.WithValidator(safety.NewValidator(protectedTrees(cfg)...)),
	}

	var m *metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		m = metrics.New()
		orchOpts = append(orchOpts, orchestrator.WithMetrics(m))
	}

	var db *history.DB
	if cfg.HistoryEnabled() && len(args) > 0 {
		db, err = history.Open(cfg.History.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.History.Path).Msg("History disabled for this run")
		} else {
			defer closeHistory(db, cfg.History.RetentionDays)
			orchOpts = append(orchOpts, orchestrator.WithHistory(db))
		}
	}

	o := orchestrator.New(con, expand.New(nil), recycle.Default(), orchOpts...)
	code := o.Run(args, opts.force)

	if m != nil {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Msg("Failed to write metrics")
		}
	}
	return code, nil
}

// attachConsole binds the terminal unless the command runs on redirected streams
func attachConsole(cmd *cobra.Command) *console.Console {
	if cmd.OutOrStdout() == io.Writer(os.Stdout) {
		return console.Attach()
	}
	return console.New(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), false)
}

// protectedTrees lists the configured paths plus the trash and the tool's own directories
func protectedTrees(cfg *config.Config) []string {
	trees := append([]string{}, cfg.Safety.ProtectedPaths...)
	return append(trees,
		recycle.DefaultTrashDir(),
		config.StateDir(),
		filepath.Dir(config.DefaultPath()),
	)
}

func closeHistory(db *history.DB, retentionDays int) {
	if retentionDays > 0 {
		n, err := db.PruneOlderThan(retentionDays)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to prune history")
		} else if n > 0 {
			log.Debug().Int64("runs", n).Msg("Pruned history")
		}
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close history database")
	}
}
