package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Jyzan/benchrun/internal/config"
	"github.com/Jyzan/benchrun/internal/task"
)

func TestResolveOutPath(t *testing.T) {
	tests := []struct {
		name    string
		infile  string
		outfile string
		cfg     config.Settings
		want    string
	}{
		{
			"derived from infile",
			"bench/browsecomp.jsonl", "", config.Settings{},
			filepath.Join("results", "browsecomp.jsonl"),
		},
		{
			"derived json input gets jsonl output",
			"gaia.json", "", config.Settings{},
			filepath.Join("results", "gaia.jsonl"),
		},
		{
			"bare name prefixed",
			"in.jsonl", "custom.jsonl", config.Settings{},
			filepath.Join("results", "custom.jsonl"),
		},
		{
			"explicit dir kept",
			"in.jsonl", "out/custom.jsonl", config.Settings{},
			"out/custom.jsonl",
		},
		{
			"settings results dir",
			"in.jsonl", "custom.jsonl", config.Settings{ResultsDir: "elsewhere"},
			filepath.Join("elsewhere", "custom.jsonl"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveOutPath(tt.infile, tt.outfile, &tt.cfg); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildReport(t *testing.T) {
	results := []*task.Result{
		{Status: task.StatusSuccess},
		{Status: task.StatusSuccess},
		{Status: task.StatusError},
		{Status: task.StatusTimeout},
	}

	opts := runOptions{
		infile:          "tasks.jsonl",
		concurrency:     5,
		summaryInterval: 8,
	}
	report := buildReport(opts, "results/out.jsonl", "test-model", results, 6, 2, 90*time.Second)

	if report.Success != 2 || report.Errors != 1 || report.Timeouts != 1 {
		t.Errorf("counts wrong: %+v", report)
	}
	if report.TotalTasks != 6 || report.Resumed != 2 {
		t.Errorf("totals wrong: %+v", report)
	}
	if report.Failed() != 2 {
		t.Errorf("failed: got %d", report.Failed())
	}
	if len(report.RunID) != 12 {
		t.Errorf("run id should be 12 hex chars, got %q", report.RunID)
	}
}

func TestBuildReport_DistinctRunIDs(t *testing.T) {
	opts := runOptions{infile: "tasks.jsonl"}
	a := buildReport(opts, "o", "m", nil, 0, 0, 0)
	time.Sleep(time.Millisecond)
	b := buildReport(opts, "o", "m", nil, 0, 0, 0)
	if a.RunID == b.RunID {
		t.Error("run ids should differ across invocations")
	}
}
