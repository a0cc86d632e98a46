package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jyzan/benchrun/internal/config"
	"github.com/Jyzan/benchrun/internal/history"
	"github.com/Jyzan/benchrun/internal/task"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List past runs, or show one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			dbPath := cfg.HistoryDB
			if dbPath == "" {
				dbPath = history.DefaultPath()
			}
			if dbPath == "off" {
				return fmt.Errorf("history recording is disabled in %s", configFile)
			}

			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.Get(args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("no run with id %q", args[0])
				}
				printRunDetail(os.Stdout, run)
				return nil
			}

			runs, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no recorded runs")
				return nil
			}

			fmt.Printf("%-14s %-17s %-28s %-24s %6s %6s %5s %5s %9s\n",
				"RUN", "WHEN", "TASKS FILE", "MODEL", "TOTAL", "OK", "ERR", "TO", "DURATION")
			for _, r := range runs {
				fmt.Printf("%-14s %-17s %-28s %-24s %6d %6d %5d %5d %9s\n",
					r.RunID,
					r.Timestamp.Format("2006-01-02 15:04"),
					clip(r.TasksFile, 28),
					clip(r.Model, 24),
					r.TotalTasks, r.Success, r.Errors, r.Timeouts,
					r.TotalDuration.Truncate(time.Second))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")

	return cmd
}

// printRunDetail writes the full record of a single run.
func printRunDetail(w io.Writer, r *task.RunReport) {
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "When: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Tasks file: %s\n", r.TasksFile)
	fmt.Fprintf(w, "Results: %s\n", r.OutFile)
	fmt.Fprintf(w, "Model: %s\n", r.Model)
	fmt.Fprintf(w, "Concurrency: %d  Summary interval: %d\n", r.Concurrency, r.SummaryInterval)
	fmt.Fprintf(w, "Duration: %s\n", r.TotalDuration.Truncate(time.Second))
	fmt.Fprintf(w, "Total: %d  Success: %d  Errors: %d  Timeouts: %d  Resumed: %d\n",
		r.TotalTasks, r.Success, r.Errors, r.Timeouts, r.Resumed)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n+3:]
}
