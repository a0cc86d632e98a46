package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{ID: fmt.Sprintf("t%02d", i), Question: fmt.Sprintf("question %d", i)}
	}
	return tasks
}

func TestPool_OneResultPerTask(t *testing.T) {
	tasks := makeTasks(9)
	pool := NewPool(tasks, PoolConfig{
		Workers: 3,
		SolveFn: func(_ context.Context, tk *Task) (string, error) {
			return "answer to " + tk.ID, nil
		},
	})

	results := pool.Run(context.Background())

	if len(results) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(results))
	}
	for i, r := range results {
		if r.Status != StatusSuccess {
			t.Errorf("task %d: expected success, got %s", i, r.Status)
		}
		if r.TaskID != tasks[i].ID {
			t.Errorf("result %d out of order: got %s, want %s", i, r.TaskID, tasks[i].ID)
		}
	}
}

func TestPool_ConcurrencyLimit(t *testing.T) {
	const workers = 4
	var inFlight, peak int64
	var mu sync.Mutex

	pool := NewPool(makeTasks(40), PoolConfig{
		Workers: workers,
		SolveFn: func(_ context.Context, _ *Task) (string, error) {
			n := atomic.AddInt64(&inFlight, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return "ok", nil
		},
	})

	pool.Run(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if peak > workers {
		t.Errorf("concurrency limit violated: %d tasks in flight, limit %d", peak, workers)
	}
}

func TestPool_FailureDoesNotStopRun(t *testing.T) {
	tasks := makeTasks(3)
	pool := NewPool(tasks, PoolConfig{
		Workers: 1,
		SolveFn: func(_ context.Context, tk *Task) (string, error) {
			if tk.ID == "t01" {
				return "", errors.New("model exploded")
			}
			return "fine", nil
		},
	})

	results := pool.Run(context.Background())

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []Status{StatusSuccess, StatusError, StatusSuccess}
	for i, r := range results {
		if r.Status != want[i] {
			t.Errorf("result %d: expected %s, got %s", i, want[i], r.Status)
		}
	}
	if results[1].Error != "model exploded" {
		t.Errorf("error detail not recorded: %q", results[1].Error)
	}
}

func TestPool_SummaryIntervalFlush(t *testing.T) {
	var mu sync.Mutex
	var flushSizes []int

	pool := NewPool(makeTasks(7), PoolConfig{
		Workers:         1,
		SummaryInterval: 3,
		SolveFn: func(_ context.Context, _ *Task) (string, error) {
			return "ok", nil
		},
		OnFlush: func(done []*Result) {
			mu.Lock()
			flushSizes = append(flushSizes, len(done))
			mu.Unlock()
		},
	})

	pool.Run(context.Background())

	mu.Lock()
	defer mu.Unlock()
	// flushes after 3 and 6 completions, plus the final flush
	if len(flushSizes) != 3 {
		t.Fatalf("expected 3 flushes, got %d (%v)", len(flushSizes), flushSizes)
	}
	if flushSizes[0] != 3 || flushSizes[1] != 6 || flushSizes[2] != 7 {
		t.Errorf("unexpected flush sizes: %v", flushSizes)
	}
}

func TestPool_FinalFlushAlways(t *testing.T) {
	flushes := 0
	pool := NewPool(makeTasks(2), PoolConfig{
		Workers: 2,
		// interval larger than the task count: only the final flush fires
		SummaryInterval: 100,
		SolveFn: func(_ context.Context, _ *Task) (string, error) {
			return "ok", nil
		},
		OnFlush: func(done []*Result) {
			flushes++
			if len(done) != 2 {
				t.Errorf("final flush should carry all results, got %d", len(done))
			}
		},
	})

	pool.Run(context.Background())

	if flushes != 1 {
		t.Errorf("expected exactly the final flush, got %d", flushes)
	}
}

func TestPool_TaskTimeout(t *testing.T) {
	pool := NewPool(makeTasks(1), PoolConfig{
		Workers:     1,
		TaskTimeout: 10 * time.Millisecond,
		SolveFn: func(ctx context.Context, _ *Task) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})

	results := pool.Run(context.Background())

	if results[0].Status != StatusTimeout {
		t.Errorf("expected timeout status, got %s", results[0].Status)
	}
}

func TestPool_CancelRecordsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started int64
	pool := NewPool(makeTasks(10), PoolConfig{
		Workers: 1,
		SolveFn: func(_ context.Context, _ *Task) (string, error) {
			if atomic.AddInt64(&started, 1) == 2 {
				cancel()
			}
			return "ok", nil
		},
	})

	results := pool.Run(ctx)

	if len(results) != 10 {
		t.Fatalf("expected 10 results even after cancel, got %d", len(results))
	}
	var interrupted int
	for _, r := range results {
		if !r.Status.Terminal() {
			t.Errorf("non-terminal result after Run: %s", r.Status)
		}
		if r.Status == StatusError {
			interrupted++
		}
	}
	if interrupted == 0 {
		t.Error("expected some tasks recorded as interrupted")
	}
}

func TestPool_OnUpdateSeesRunningAndTerminal(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[Status]int)

	pool := NewPool(makeTasks(3), PoolConfig{
		Workers: 1,
		SolveFn: func(_ context.Context, _ *Task) (string, error) {
			return "ok", nil
		},
		OnUpdate: func(_ int, r *Result) {
			mu.Lock()
			seen[r.Status]++
			mu.Unlock()
		},
	})

	pool.Run(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if seen[StatusRunning] != 3 || seen[StatusSuccess] != 3 {
		t.Errorf("unexpected update counts: %v", seen)
	}
}
