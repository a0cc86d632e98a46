package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Jyzan/benchrun/internal/judge"
	"github.com/Jyzan/benchrun/internal/task"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// TextReporter writes human-readable output to a writer.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintHeader writes the initial banner.
func (r *TextReporter) PrintHeader(totalTasks, resumed, concurrency int, model string) {
	fmt.Fprintf(r.w, "benchrun — %d tasks, %d workers, model %s\n", totalTasks, concurrency, model)
	if resumed > 0 {
		fmt.Fprintf(r.w, "%sresuming: %d tasks already done%s\n", r.c(colorDim), resumed, r.c(colorReset))
	}
	fmt.Fprintln(r.w)
}

// PrintStatus writes a snapshot of all terminal results, failures first.
func (r *TextReporter) PrintStatus(results []*task.Result) {
	var failed []*task.Result
	for _, res := range results {
		if res.Status == task.StatusError || res.Status == task.StatusTimeout {
			failed = append(failed, res)
		}
	}

	if len(failed) > 0 {
		fmt.Fprintf(r.w, "  %sFAILED  [%d/%d]%s\n", r.c(colorRed), len(failed), len(results), r.c(colorReset))
		for _, res := range failed {
			errMsg := res.Error
			if len(errMsg) > 120 {
				errMsg = errMsg[:120] + "..."
			}
			fmt.Fprintf(r.w, "    %-10s %-60s %s\n", res.Status, truncate(res.Question, 60), errMsg)
		}
		fmt.Fprintln(r.w)
	}
}

// PrintSummary writes the final run summary.
func (r *TextReporter) PrintSummary(report *task.RunReport) {
	fmt.Fprintf(r.w, "\nRun %s finished in %s\n", report.RunID, report.TotalDuration.Truncate(time.Second))
	fmt.Fprintf(r.w, "  %s%d success%s", r.c(colorGreen), report.Success, r.c(colorReset))
	if report.Errors > 0 {
		fmt.Fprintf(r.w, ", %s%d errors%s", r.c(colorRed), report.Errors, r.c(colorReset))
	}
	if report.Timeouts > 0 {
		fmt.Fprintf(r.w, ", %s%d timeouts%s", r.c(colorYellow), report.Timeouts, r.c(colorReset))
	}
	if report.Resumed > 0 {
		fmt.Fprintf(r.w, ", %s%d resumed%s", r.c(colorDim), report.Resumed, r.c(colorReset))
	}
	fmt.Fprintf(r.w, "  (%d total)\n", report.TotalTasks)
	fmt.Fprintf(r.w, "  results: %s\n", report.OutFile)
}

// PrintScore writes one file's accuracy report, optionally with
// per-entry details.
func (r *TextReporter) PrintScore(fr *judge.FileReport, details bool) {
	fmt.Fprintf(r.w, "%s\n", fr.File)
	fmt.Fprintf(r.w, "  total %d, correct %d, accuracy %s%.2f%%%s",
		fr.Total, fr.Correct, r.c(colorGreen), fr.Accuracy(), r.c(colorReset))
	if fr.Malformed > 0 {
		fmt.Fprintf(r.w, ", %s%d malformed entries%s", r.c(colorYellow), fr.Malformed, r.c(colorReset))
	}
	fmt.Fprintln(r.w)

	if !details {
		return
	}
	for i, d := range fr.Details {
		icon := r.c(colorGreen) + "✓" + r.c(colorReset)
		if !d.Correct {
			icon = r.c(colorRed) + "✗" + r.c(colorReset)
		}
		line := fmt.Sprintf("  %3d %s %-50s gold: %-25s got: %-25s [%s]",
			i+1, icon, truncate(d.Question, 50), truncate(d.Golden, 25), truncate(d.Answer, 25), d.Method)
		if d.Error != "" {
			line += " " + r.c(colorRed) + d.Error + r.c(colorReset)
		}
		fmt.Fprintln(r.w, line)
	}
}

// PrintComparison writes the cross-file accuracy table for a multi-file
// score invocation.
func (r *TextReporter) PrintComparison(reports []*judge.FileReport) {
	if len(reports) < 2 {
		return
	}
	fmt.Fprintf(r.w, "\n%-40s %8s %8s %10s\n", "FILE", "TOTAL", "CORRECT", "ACCURACY")
	for _, fr := range reports {
		fmt.Fprintf(r.w, "%-40s %8d %8d %9.2f%%\n", truncate(fr.File, 40), fr.Total, fr.Correct, fr.Accuracy())
	}
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
