package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Jyzan/benchrun/internal/task"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const maxTaskLines = 20

// LiveReporter provides a live-updating terminal display during a run.
type LiveReporter struct {
	w          io.Writer
	color      bool
	getResults func() []*task.Result
	stop       chan struct{}
	done       chan struct{}
	lastLines  int
	frame      int
	mu         sync.Mutex
}

// NewLiveReporter creates a live reporter that polls results via getResults.
func NewLiveReporter(w io.Writer, color bool, getResults func() []*task.Result) *LiveReporter {
	return &LiveReporter{
		w:          w,
		color:      color,
		getResults: getResults,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins the periodic refresh loop.
func (lr *LiveReporter) Start() {
	go lr.loop()
}

// Stop halts the refresh loop and clears the live display.
func (lr *LiveReporter) Stop() {
	close(lr.stop)
	<-lr.done
	lr.clearLastFrame()
}

func (lr *LiveReporter) loop() {
	defer close(lr.done)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-lr.stop:
			return
		case <-ticker.C:
			lr.render()
		}
	}
}

func (lr *LiveReporter) clearLastFrame() {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.lastLines > 0 {
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
		for i := 0; i < lr.lastLines; i++ {
			fmt.Fprintf(lr.w, "\033[K\n")
		}
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
	}
}

func (lr *LiveReporter) render() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	results := lr.getResults()
	lines := lr.buildLines(results)

	// move cursor up to overwrite previous frame
	if lr.lastLines > 0 {
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
	}

	for _, line := range lines {
		fmt.Fprintf(lr.w, "\033[K%s\n", line)
	}

	lr.lastLines = len(lines)
	lr.frame++
}

// Render produces the display lines for a given results snapshot.
// Exported for testing.
func (lr *LiveReporter) Render(results []*task.Result) []string {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.buildLines(results)
}

func (lr *LiveReporter) buildLines(results []*task.Result) []string {
	var failed, running, succeeded, queued []*task.Result
	for _, res := range results {
		switch res.Status {
		case task.StatusError, task.StatusTimeout:
			failed = append(failed, res)
		case task.StatusRunning:
			running = append(running, res)
		case task.StatusSuccess:
			succeeded = append(succeeded, res)
		default:
			queued = append(queued, res)
		}
	}

	total := len(results)
	spinner := spinnerFrames[lr.frame%len(spinnerFrames)]

	var lines []string
	lines = append(lines, fmt.Sprintf("benchrun — %d tasks", total))
	lines = append(lines, "")

	taskLines := 0

	for _, res := range failed {
		if taskLines >= maxTaskLines {
			break
		}
		errMsg := res.Error
		if len(errMsg) > 80 {
			errMsg = errMsg[:80] + "..."
		}
		lines = append(lines, fmt.Sprintf("  %s✗ %-8s %-55s %s%s",
			lr.c(colorRed), res.Status, truncate(res.Question, 55), errMsg, lr.c(colorReset)))
		taskLines++
	}

	for _, res := range running {
		if taskLines >= maxTaskLines {
			break
		}
		elapsed := time.Since(res.StartedAt).Truncate(time.Second)
		lines = append(lines, fmt.Sprintf("  %s%s %-8s %-55s %s%s",
			lr.c(colorCyan), spinner, "running", truncate(res.Question, 55), elapsed, lr.c(colorReset)))
		taskLines++
	}

	shownDone := 0
	for i := len(succeeded) - 1; i >= 0 && taskLines < maxTaskLines; i-- {
		res := succeeded[i]
		dur := time.Duration(res.Duration * float64(time.Second)).Truncate(time.Second)
		lines = append(lines, fmt.Sprintf("  %s✓ %-8s %-55s %s%s",
			lr.c(colorGreen), "done", truncate(res.Question, 55), dur, lr.c(colorReset)))
		taskLines++
		shownDone++
	}
	if remaining := len(succeeded) - shownDone; remaining > 0 {
		lines = append(lines, fmt.Sprintf("  %s... %d more done%s", lr.c(colorDim), remaining, lr.c(colorReset)))
	}

	if len(queued) > 0 {
		lines = append(lines, fmt.Sprintf("  %s─ queued   %d tasks%s", lr.c(colorDim), len(queued), lr.c(colorReset)))
	}

	lines = append(lines, "")
	lines = append(lines, lr.progressLine(len(succeeded), len(running), len(failed), len(queued)))

	return lines
}

func (lr *LiveReporter) progressLine(done, running, failed, queued int) string {
	parts := []string{}
	if done > 0 {
		parts = append(parts, fmt.Sprintf("%s%d done%s", lr.c(colorGreen), done, lr.c(colorReset)))
	}
	if running > 0 {
		parts = append(parts, fmt.Sprintf("%s%d running%s", lr.c(colorCyan), running, lr.c(colorReset)))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%s%d failed%s", lr.c(colorRed), failed, lr.c(colorReset)))
	}
	if queued > 0 {
		parts = append(parts, fmt.Sprintf("%s%d queued%s", lr.c(colorDim), queued, lr.c(colorReset)))
	}
	return fmt.Sprintf("  progress: %s", strings.Join(parts, ", "))
}

func (lr *LiveReporter) c(code string) string {
	if !lr.color {
		return ""
	}
	return code
}
