package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Jyzan/benchrun/internal/config"
	"github.com/Jyzan/benchrun/internal/history"
	"github.com/Jyzan/benchrun/internal/reporter"
	"github.com/Jyzan/benchrun/internal/results"
	"github.com/Jyzan/benchrun/internal/solver"
	"github.com/Jyzan/benchrun/internal/task"
)

const (
	defaultConcurrency     = 15
	defaultSummaryInterval = 8
	defaultTaskTimeout     = 10 * time.Minute
	defaultResultsDir      = "results"
)

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a benchmark task file with bounded concurrency",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("concurrency") && cfg.Concurrency > 0 {
				opts.concurrency = cfg.Concurrency
			}
			if !cmd.Flags().Changed("summary-interval") && cfg.SummaryInterval > 0 {
				opts.summaryInterval = cfg.SummaryInterval
			}
			if !cmd.Flags().Changed("timeout") && cfg.TaskTimeout > 0 {
				opts.timeout = cfg.TaskTimeout
			}
			if !cmd.Flags().Changed("env") && cfg.EnvFile != "" {
				opts.envFile = cfg.EnvFile
			}
			opts.settings = cfg

			ctx, cancel := signalContext()
			defer cancel()
			_, err = runBenchmark(ctx, cancel, opts)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.infile, "infile", "", "input task file (.json array or .jsonl)")
	cmd.Flags().StringVar(&opts.outfile, "outfile", "", "output results file (defaults to <infile>.jsonl under the results dir)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", defaultConcurrency, "max simultaneous in-flight tasks")
	cmd.Flags().IntVar(&opts.summaryInterval, "summary-interval", defaultSummaryInterval, "flush partial results after this many completions")
	cmd.Flags().IntVar(&opts.sample, "sample", 0, "only run the first N tasks")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", defaultTaskTimeout, "per-task timeout")
	cmd.Flags().StringVar(&opts.envFile, "env", ".env", "env file with API credentials")
	cmd.Flags().StringVar(&opts.tuiMode, "tui", "auto", "display mode: full (interactive TUI), minimal (live status), off, auto (detect TTY)")
	_ = cmd.MarkFlagRequired("infile")

	return cmd
}

// runOptions holds parameters for runBenchmark.
type runOptions struct {
	infile          string
	outfile         string
	concurrency     int
	summaryInterval int
	sample          int
	timeout         time.Duration
	envFile         string
	tuiMode         string
	settings        *config.Settings
}

// signalContext returns a context cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, waiting for running tasks to finish...")
		cancel()
	}()
	return ctx, cancel
}

// runBenchmark is the shared execution core used by the run and watch
// commands.
func runBenchmark(ctx context.Context, cancel context.CancelFunc, opts runOptions) (*task.RunReport, error) {
	cfg := opts.settings
	if cfg == nil {
		cfg = &config.Settings{}
	}

	api, err := config.LoadAPI(opts.envFile)
	if err != nil {
		return nil, err
	}
	model := api.Model
	if cfg.Model != "" {
		model = cfg.Model
	}
	slog.Info("api configured", "base", api.BaseURL, "key", api.Redacted(), "model", model)

	tasks, err := config.LoadTasks(opts.infile)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if opts.sample > 0 && opts.sample < len(tasks) {
		tasks = tasks[:opts.sample]
	}

	outPath := resolveOutPath(opts.infile, opts.outfile, cfg)

	prior, err := results.LoadPrior(outPath)
	if err != nil {
		slog.Warn("existing output partially unreadable, keeping what parsed", "error", err)
	}
	remaining, resumed := results.FilterDone(tasks, prior)
	slog.Info("tasks loaded", "total", len(tasks), "done", resumed, "remaining", len(remaining))

	writer := results.NewWriter(outPath, prior)

	slv, err := solver.New(solver.Config{
		APIKey:      api.Key,
		BaseURL:     api.BaseURL,
		Model:       model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	isTTY := isTerminal()
	textRep := reporter.NewTextReporter(os.Stdout, isTTY)
	textRep.PrintHeader(len(tasks), resumed, opts.concurrency, model)

	if len(remaining) == 0 {
		fmt.Fprintln(os.Stdout, "nothing to do: all tasks already have results")
		return &task.RunReport{
			TasksFile:  opts.infile,
			OutFile:    outPath,
			Model:      model,
			TotalTasks: len(tasks),
			Resumed:    resumed,
		}, nil
	}

	pool := task.NewPool(remaining, task.PoolConfig{
		Workers:         opts.concurrency,
		SummaryInterval: opts.summaryInterval,
		TaskTimeout:     opts.timeout,
		SolveFn:         slv.Solve,
		OnUpdate: func(idx int, r *task.Result) {
			slog.Debug("task update", "task", r.Key(), "status", r.Status)
		},
		OnFlush: func(done []*task.Result) {
			if err := writer.Flush(done); err != nil {
				slog.Warn("flush failed", "error", err)
			}
		},
	})

	// resolve display mode: full TUI, minimal live reporter, or off
	displayMode := opts.tuiMode
	if displayMode == "" || displayMode == "auto" {
		if isTTY {
			displayMode = "minimal"
		} else {
			displayMode = "off"
		}
	}

	var live *reporter.LiveReporter
	var tuiProgram *tea.Program
	switch displayMode {
	case "full":
		tuiModel := reporter.NewTUIModel(pool.Results, cancel)
		tuiProgram = tea.NewProgram(tuiModel, tea.WithAltScreen())
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				slog.Warn("TUI error", "error", err)
			}
		}()
	case "minimal":
		live = reporter.NewLiveReporter(os.Stdout, isTTY, pool.Results)
		live.Start()
	default:
		// "off" or unrecognized: no live display
	}

	start := time.Now()
	runResults := pool.Run(ctx)
	totalDuration := time.Since(start)

	if tuiProgram != nil {
		tuiProgram.Quit()
		tuiProgram.Wait()
	}
	if live != nil {
		live.Stop()
	}

	report := buildReport(opts, outPath, model, runResults, len(tasks), resumed, totalDuration)
	textRep.PrintStatus(runResults)
	textRep.PrintSummary(report)

	writeRunDir(report)
	recordHistory(cfg, report)

	if report.Failed() > 0 {
		return report, &task.FailedRunError{Failed: report.Failed()}
	}
	return report, nil
}

// resolveOutPath derives the output path: explicit path, or input base
// name with a .jsonl extension, prefixed with the results directory
// when given without one.
func resolveOutPath(infile, outfile string, cfg *config.Settings) string {
	resultsDir := cfg.ResultsDir
	if resultsDir == "" {
		resultsDir = defaultResultsDir
	}
	if outfile == "" {
		base := strings.TrimSuffix(filepath.Base(infile), filepath.Ext(infile))
		outfile = base + ".jsonl"
	}
	return results.ResolvePath(outfile, resultsDir)
}

func buildReport(opts runOptions, outPath, model string, runResults []*task.Result, total, resumed int, duration time.Duration) *task.RunReport {
	report := &task.RunReport{
		Timestamp:       time.Now(),
		TasksFile:       opts.infile,
		OutFile:         outPath,
		Model:           model,
		Concurrency:     opts.concurrency,
		SummaryInterval: opts.summaryInterval,
		TotalTasks:      total,
		Resumed:         resumed,
		TotalDuration:   duration,
	}

	// deterministic run ID from timestamp + input path
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s", report.Timestamp.UnixNano(), report.TasksFile)
	report.RunID = hex.EncodeToString(h.Sum(nil)[:6])

	for _, r := range runResults {
		switch r.Status {
		case task.StatusSuccess:
			report.Success++
		case task.StatusTimeout:
			report.Timeouts++
		case task.StatusError:
			report.Errors++
		}
	}
	return report
}

// writeRunDir persists the report under .benchrun/<timestamp>/ so the
// status command can find it later.
func writeRunDir(report *task.RunReport) {
	runDir := filepath.Join(".benchrun", report.Timestamp.Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		slog.Warn("create run dir", "error", err)
		return
	}
	reportPath := filepath.Join(runDir, "report.json")
	if err := reporter.WriteJSONReport(report, reportPath); err != nil {
		slog.Warn("failed to write report", "error", err)
		return
	}
	fmt.Fprintf(os.Stdout, "\nReport: %s\n", reportPath)
}

// recordHistory stores the run in the SQLite history, best effort.
func recordHistory(cfg *config.Settings, report *task.RunReport) {
	dbPath := cfg.HistoryDB
	if dbPath == "off" {
		return
	}
	if dbPath == "" {
		dbPath = history.DefaultPath()
	}
	store, err := history.Open(dbPath)
	if err != nil {
		slog.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(report); err != nil {
		slog.Warn("history record failed", "error", err)
	}
}
