// Package results persists benchmark results and reads them back for
// resume and scoring. Flushes rewrite the whole file atomically
// (tmp → rename), so re-flushing an unchanged result set produces a
// byte-identical file.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Jyzan/benchrun/internal/task"
)

// ResolvePath applies the results directory prefix to output paths
// given without a directory component.
func ResolvePath(outFile, resultsDir string) string {
	if outFile == "" || filepath.IsAbs(outFile) {
		return outFile
	}
	if dir := filepath.Dir(outFile); dir != "." {
		return outFile
	}
	if strings.HasPrefix(outFile, "./") {
		return outFile
	}
	return filepath.Join(resultsDir, outFile)
}

// Writer serializes results to a single output file. Prior-run results
// are written first, then the current run's, both in task order.
// Safe for concurrent Flush calls.
type Writer struct {
	path  string
	prior []*task.Result
	mu    sync.Mutex
}

// NewWriter creates a writer for the given path, carrying results from
// a previous interrupted run so they survive subsequent flushes.
func NewWriter(path string, prior []*task.Result) *Writer {
	return &Writer{path: path, prior: prior}
}

// Flush writes prior plus current results to the output file. Files
// ending in .json get an indented JSON array; everything else gets
// newline-delimited JSON.
func (w *Writer) Flush(current []*task.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	all := make([]*task.Result, 0, len(w.prior)+len(current))
	all = append(all, w.prior...)
	all = append(all, current...)

	var data []byte
	var err error
	if strings.HasSuffix(strings.ToLower(w.path), ".json") {
		data, err = json.MarshalIndent(all, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		var b strings.Builder
		for _, r := range all {
			line, merr := json.Marshal(r)
			if merr != nil {
				err = merr
				break
			}
			b.Write(line)
			b.WriteByte('\n')
		}
		data = []byte(b.String())
	}
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replace results: %w", err)
	}
	return nil
}

// Load reads a results file in either format: a JSON array, a single
// JSON object, or newline-delimited JSON. Unparsable lines are skipped
// and counted as malformed rather than failing the whole file.
func Load(path string) (results []*task.Result, malformed int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, 0, nil
	}

	// Whole-file JSON first.
	if err := json.Unmarshal([]byte(content), &results); err == nil {
		return results, 0, nil
	}
	var single task.Result
	if err := json.Unmarshal([]byte(content), &single); err == nil && single.Question != "" {
		return []*task.Result{&single}, 0, nil
	}

	// Fall back to line-by-line JSONL.
	results = nil
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var r task.Result
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			malformed++
			continue
		}
		results = append(results, &r)
	}
	return results, malformed, nil
}

// LoadPrior reads an existing output file for resume. A missing file
// is an empty prior set, not an error.
func LoadPrior(path string) ([]*task.Result, error) {
	prior, malformed, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read existing output: %w", err)
	}
	if malformed > 0 {
		return prior, fmt.Errorf("existing output has %d malformed entries", malformed)
	}
	return prior, nil
}

// FilterDone splits tasks into those still to run and the count of
// tasks already covered by a terminal prior result.
func FilterDone(tasks []task.Task, prior []*task.Result) (remaining []task.Task, done int) {
	seen := make(map[string]struct{}, len(prior))
	for _, r := range prior {
		if r.Status.Terminal() {
			seen[r.Key()] = struct{}{}
		}
	}
	for _, t := range tasks {
		if _, ok := seen[t.Key()]; ok {
			done++
			continue
		}
		remaining = append(remaining, t)
	}
	return remaining, done
}
