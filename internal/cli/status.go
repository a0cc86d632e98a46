package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jyzan/benchrun/internal/task"
)

func newStatusCmd() *cobra.Command {
	var runDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect the report of a completed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runDir == "" {
				latest, err := findLatestRunDir(".")
				if err != nil {
					return fmt.Errorf("no --run-dir specified and %w", err)
				}
				runDir = latest
			}
			return showStatus(runDir)
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "path to .benchrun/<timestamp> directory (auto-detects latest if omitted)")

	return cmd
}

// findLatestRunDir scans baseDir/.benchrun/ for the most recent run
// directory that contains a report.json.
func findLatestRunDir(baseDir string) (string, error) {
	brDir := fmt.Sprintf("%s/.benchrun", baseDir)
	entries, err := os.ReadDir(brDir)
	if err != nil {
		return "", fmt.Errorf("cannot read .benchrun directory: %w", err)
	}

	// entries are sorted alphabetically; timestamps sort chronologically
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.IsDir() {
			continue
		}
		candidate := fmt.Sprintf("%s/%s", brDir, e.Name())
		if _, err := os.Stat(fmt.Sprintf("%s/report.json", candidate)); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no completed runs found in %s", brDir)
}

func showStatus(runDir string) error {
	reportPath := fmt.Sprintf("%s/report.json", runDir)
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	var report task.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("parse report: %w", err)
	}

	fmt.Printf("Run: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	if report.RunID != "" {
		fmt.Printf("Run ID: %s\n", report.RunID)
	}
	fmt.Printf("Tasks file: %s\n", report.TasksFile)
	fmt.Printf("Results: %s\n", report.OutFile)
	fmt.Printf("Model: %s\n", report.Model)
	fmt.Printf("Concurrency: %d\n", report.Concurrency)
	fmt.Printf("Duration: %s\n\n", report.TotalDuration.Truncate(time.Second))

	fmt.Printf("Total: %d  Success: %d  Errors: %d  Timeouts: %d  Resumed: %d\n",
		report.TotalTasks, report.Success, report.Errors, report.Timeouts, report.Resumed)

	return nil
}
