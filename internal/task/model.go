package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status represents the lifecycle state of a task within a run.
// Only terminal statuses (success, error, timeout) ever reach the
// output file.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusTimeout
}

// Task is a single benchmark question loaded from the input file.
// Immutable once loaded.
type Task struct {
	ID          string   `json:"id,omitempty"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer,omitempty"` // golden answer
	Attachments []string `json:"attachments,omitempty"`
}

// UnmarshalJSON accepts both attachment conventions found in benchmark
// files: a single "file_name" string or an "attachments" array.
func (t *Task) UnmarshalJSON(data []byte) error {
	type Alias Task
	aux := &struct {
		FileName    string          `json:"file_name,omitempty"`
		Attachments json.RawMessage `json:"attachments,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Attachments) > 0 && string(aux.Attachments) != "null" {
		// Try array first, then single string.
		var arr []string
		if err := json.Unmarshal(aux.Attachments, &arr); err == nil {
			t.Attachments = arr
		} else {
			var s string
			if err := json.Unmarshal(aux.Attachments, &s); err != nil {
				return err
			}
			if s != "" {
				t.Attachments = []string{s}
			}
		}
	}

	if aux.FileName != "" {
		t.Attachments = append(t.Attachments, aux.FileName)
	}
	return nil
}

// Key returns the identity used for resume matching: the explicit ID
// when present, otherwise the question text.
func (t *Task) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Question
}

// Result captures the outcome of solving a single task. The field
// names match what the score command consumes, so a results file is
// self-contained.
type Result struct {
	TaskID       string    `json:"task_id,omitempty"`
	Question     string    `json:"question"`
	GoldenAnswer string    `json:"golden_answer,omitempty"`
	AgentResult  string    `json:"agent_result,omitempty"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	EndedAt      time.Time `json:"ended_at,omitempty"`
	Duration     float64   `json:"duration_s,omitempty"`
}

// Key mirrors Task.Key for resume matching against prior results.
func (r *Result) Key() string {
	if r.TaskID != "" {
		return r.TaskID
	}
	return r.Question
}

// RunReport is the final summary of a benchrun execution, written to
// the run directory and recorded in the history store.
type RunReport struct {
	RunID           string        `json:"run_id"`
	Timestamp       time.Time     `json:"timestamp"`
	TasksFile       string        `json:"tasks_file"`
	OutFile         string        `json:"out_file"`
	Model           string        `json:"model"`
	Concurrency     int           `json:"concurrency"`
	SummaryInterval int           `json:"summary_interval"`
	TotalTasks      int           `json:"total_tasks"`
	Resumed         int           `json:"resumed,omitempty"`
	Success         int           `json:"success"`
	Errors          int           `json:"errors"`
	Timeouts        int           `json:"timeouts"`
	TotalDuration   time.Duration `json:"total_duration"`
}

// Failed reports how many tasks did not succeed.
func (r *RunReport) Failed() int {
	return r.Errors + r.Timeouts
}

// FailedRunError reports a run that completed with some tasks in a
// failed state. The results file is fully written when this is
// returned, which distinguishes it from fatal errors that abort a run
// before any results exist.
type FailedRunError struct {
	Failed int
}

func (e *FailedRunError) Error() string {
	return fmt.Sprintf("%d tasks failed", e.Failed)
}

// Validate checks a loaded task list for problems that would corrupt a
// run: no tasks, empty questions, duplicate IDs.
func Validate(tasks []Task) error {
	if len(tasks) == 0 {
		return fmt.Errorf("task file contains no tasks")
	}

	ids := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		if t.Question == "" {
			return fmt.Errorf("task %d has empty question", i)
		}
		if t.ID == "" {
			continue
		}
		if _, dup := ids[t.ID]; dup {
			return fmt.Errorf("duplicate task id: %q", t.ID)
		}
		ids[t.ID] = struct{}{}
	}
	return nil
}
