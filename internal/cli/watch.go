package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jyzan/benchrun/internal/config"
	"github.com/Jyzan/benchrun/internal/task"
	"github.com/Jyzan/benchrun/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		dir             string
		pollMode        bool
		concurrency     int
		summaryInterval int
		timeout         time.Duration
		envFile         string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and run task files as they appear",
		Long: `Watch monitors a directory for new .json/.jsonl task files and runs
each through the benchmark driver. Files whose run completed move to
done/ (even when individual tasks failed, since their results are
written); files whose run aborted before producing results move to
failed/. Existing files are picked up on startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("dir") && cfg.WatchDir != "" {
				dir = cfg.WatchDir
			}
			if !cmd.Flags().Changed("concurrency") && cfg.Concurrency > 0 {
				concurrency = cfg.Concurrency
			}
			if !cmd.Flags().Changed("summary-interval") && cfg.SummaryInterval > 0 {
				summaryInterval = cfg.SummaryInterval
			}
			if !cmd.Flags().Changed("timeout") && cfg.TaskTimeout > 0 {
				timeout = cfg.TaskTimeout
			}
			if !cmd.Flags().Changed("env") && cfg.EnvFile != "" {
				envFile = cfg.EnvFile
			}

			ctx, cancel := signalContext()
			defer cancel()

			// Each dropped file goes through the same execution core as
			// the run command, with the output name derived from the input.
			runFn := func(ctx context.Context, tasksFile string) error {
				_, err := runBenchmark(ctx, cancel, runOptions{
					infile:          tasksFile,
					concurrency:     concurrency,
					summaryInterval: summaryInterval,
					timeout:         timeout,
					envFile:         envFile,
					tuiMode:         "off",
					settings:        cfg,
				})
				return watchRunError(err)
			}

			w, err := watch.New(watch.Config{
				Dir:      dir,
				PollMode: pollMode,
				RunFn:    runFn,
			})
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "inbox", "directory to watch for task files")
	cmd.Flags().BoolVar(&pollMode, "poll", false, "use polling instead of fsnotify")
	cmd.Flags().IntVar(&concurrency, "concurrency", defaultConcurrency, "max simultaneous in-flight tasks")
	cmd.Flags().IntVar(&summaryInterval, "summary-interval", defaultSummaryInterval, "flush partial results after this many completions")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTaskTimeout, "per-task timeout")
	cmd.Flags().StringVar(&envFile, "env", ".env", "env file with API credentials")

	return cmd
}

// watchRunError decides whether a run error should send the task file
// to failed/. A run that completed with some task failures still wrote
// its full results file, so its task file belongs in done/; failed/ is
// reserved for fatal errors that aborted the run.
func watchRunError(err error) error {
	var fe *task.FailedRunError
	if errors.As(err, &fe) {
		slog.Warn("run completed with task failures", "failed", fe.Failed)
		return nil
	}
	return err
}
