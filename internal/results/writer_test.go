package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jyzan/benchrun/internal/task"
)

func terminalResult(id, question, answer string) *task.Result {
	return &task.Result{
		TaskID:      id,
		Question:    question,
		AgentResult: answer,
		Status:      task.StatusSuccess,
	}
}

func TestWriter_FlushIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	w := NewWriter(path, nil)

	current := []*task.Result{
		terminalResult("a", "q1", "x"),
		terminalResult("b", "q2", "y"),
	}

	if err := w.Flush(current); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Flush(current); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Error("re-flushing the same results changed the file")
	}
}

func TestWriter_JSONLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	w := NewWriter(path, nil)

	if err := w.Flush([]*task.Result{terminalResult("a", "q", "x")}); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 jsonl line, got %d", len(lines))
	}
	if strings.HasPrefix(string(data), "[") {
		t.Error("jsonl output should not be a JSON array")
	}
}

func TestWriter_JSONFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := NewWriter(path, nil)

	if err := w.Flush([]*task.Result{terminalResult("a", "q", "x")}); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		t.Error(".json output should be a JSON array")
	}
}

func TestWriter_PriorResultsPreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	prior := []*task.Result{terminalResult("old", "old question", "old answer")}
	w := NewWriter(path, prior)

	if err := w.Flush([]*task.Result{terminalResult("new", "new question", "new answer")}); err != nil {
		t.Fatal(err)
	}

	loaded, malformed, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if malformed != 0 {
		t.Errorf("unexpected malformed count: %d", malformed)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 results, got %d", len(loaded))
	}
	if loaded[0].TaskID != "old" || loaded[1].TaskID != "new" {
		t.Errorf("prior results not first: %s, %s", loaded[0].TaskID, loaded[1].TaskID)
	}
}

func TestLoad_ToleratesMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	content := `{"question":"q1","status":"success"}
not json at all
{"question":"q2","status":"error"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, malformed, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Errorf("expected 2 parsed results, got %d", len(loaded))
	}
	if malformed != 1 {
		t.Errorf("expected 1 malformed line, got %d", malformed)
	}
}

func TestLoad_JSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	content := `[{"question":"q1","status":"success"},{"question":"q2","status":"timeout"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, malformed, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 || malformed != 0 {
		t.Errorf("got %d results, %d malformed", len(loaded), malformed)
	}
	if loaded[1].Status != task.StatusTimeout {
		t.Errorf("status not parsed: %s", loaded[1].Status)
	}
}

func TestLoadPrior_MissingFile(t *testing.T) {
	prior, err := LoadPrior(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if prior != nil {
		t.Errorf("expected nil prior, got %d entries", len(prior))
	}
}

func TestFilterDone(t *testing.T) {
	tasks := []task.Task{
		{ID: "a", Question: "q1"},
		{ID: "b", Question: "q2"},
		{Question: "q3"}, // matched by question text
	}
	prior := []*task.Result{
		{TaskID: "a", Question: "q1", Status: task.StatusSuccess},
		{Question: "q3", Status: task.StatusError},
		{TaskID: "x", Question: "other", Status: task.StatusSuccess},
	}

	remaining, done := FilterDone(tasks, prior)

	if done != 2 {
		t.Errorf("expected 2 done, got %d", done)
	}
	if len(remaining) != 1 || remaining[0].ID != "b" {
		t.Errorf("unexpected remaining set: %+v", remaining)
	}
}

func TestFilterDone_IgnoresNonTerminal(t *testing.T) {
	tasks := []task.Task{{ID: "a", Question: "q1"}}
	prior := []*task.Result{{TaskID: "a", Question: "q1", Status: task.StatusRunning}}

	remaining, done := FilterDone(tasks, prior)
	if done != 0 || len(remaining) != 1 {
		t.Errorf("non-terminal prior result should not count as done")
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{"out.jsonl", filepath.Join("results", "out.jsonl")},
		{"sub/out.jsonl", "sub/out.jsonl"},
		{"./out.jsonl", "./out.jsonl"},
		{"/abs/out.jsonl", "/abs/out.jsonl"},
	}

	for _, tt := range tests {
		if got := ResolvePath(tt.out, "results"); got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, want %q", tt.out, got, tt.want)
		}
	}
}
