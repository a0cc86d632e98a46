package task

import (
	"context"
	"sync"
	"time"
)

// SolveFn is the function signature for solving a single task.
// Implementations call the model backend and return the final answer.
type SolveFn func(ctx context.Context, t *Task) (string, error)

// PoolConfig holds execution driver parameters. Everything the pool
// needs is passed in explicitly; there is no ambient state.
type PoolConfig struct {
	Workers         int           // concurrency limit C
	SummaryInterval int           // flush after this many completions; <=0 disables periodic flush
	TaskTimeout     time.Duration // per-task deadline; <=0 means no deadline
	SolveFn         SolveFn
	OnUpdate        func(idx int, result *Result) // called on state changes, for live display
	OnFlush         func(results []*Result)       // called with an ordered snapshot of terminal results
}

// Pool dispatches tasks to a bounded worker pool and collects exactly
// one terminal result per task.
type Pool struct {
	cfg     PoolConfig
	tasks   []Task
	results []*Result
	solved  int // terminal results so far
	mu      sync.Mutex
}

// NewPool creates a pool over the given task list.
func NewPool(tasks []Task, cfg PoolConfig) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	results := make([]*Result, len(tasks))
	for i := range tasks {
		results[i] = &Result{
			TaskID:       tasks[i].ID,
			Question:     tasks[i].Question,
			GoldenAnswer: tasks[i].Answer,
			Status:       StatusPending,
		}
	}
	return &Pool{cfg: cfg, tasks: tasks, results: results}
}

// Run executes all tasks and returns the results in input order.
// Every task gets a terminal result: a cancelled context marks the
// not-yet-started remainder as errors instead of dropping them, so the
// one-result-per-task guarantee holds even on interrupt. A final flush
// always happens before Run returns.
func (p *Pool) Run(ctx context.Context) []*Result {
	work := make(chan int, len(p.tasks))
	for i := range p.tasks {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				p.execute(ctx, idx)
			}
		}()
	}
	wg.Wait()

	p.flush()
	return p.Results()
}

// Results returns a copy of the current result set in task order.
func (p *Pool) Results() []*Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]*Result, len(p.results))
	for i, r := range p.results {
		cpy := *r
		cp[i] = &cpy
	}
	return cp
}

func (p *Pool) execute(ctx context.Context, idx int) {
	t := &p.tasks[idx]
	start := time.Now()

	if err := ctx.Err(); err != nil {
		p.record(idx, start, StatusError, "", "run interrupted before task started")
		return
	}

	p.mu.Lock()
	p.results[idx].Status = StatusRunning
	p.results[idx].StartedAt = start
	p.mu.Unlock()
	p.notify(idx)

	taskCtx := ctx
	if p.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.cfg.TaskTimeout)
		defer cancel()
	}

	answer, err := p.cfg.SolveFn(taskCtx, t)
	switch {
	case err == nil:
		p.record(idx, start, StatusSuccess, answer, "")
	case taskCtx.Err() == context.DeadlineExceeded:
		p.record(idx, start, StatusTimeout, "", err.Error())
	default:
		p.record(idx, start, StatusError, "", err.Error())
	}
}

// record stores a terminal result and triggers the periodic flush when
// the summary interval is reached.
func (p *Pool) record(idx int, start time.Time, status Status, answer, errMsg string) {
	now := time.Now()

	p.mu.Lock()
	r := p.results[idx]
	r.Status = status
	r.AgentResult = answer
	r.Error = errMsg
	r.StartedAt = start
	r.EndedAt = now
	r.Duration = now.Sub(start).Seconds()
	p.solved++
	shouldFlush := p.cfg.SummaryInterval > 0 && p.solved%p.cfg.SummaryInterval == 0
	p.mu.Unlock()

	p.notify(idx)
	if shouldFlush {
		p.flush()
	}
}

// flush hands an ordered snapshot of terminal results to the observer.
func (p *Pool) flush() {
	if p.cfg.OnFlush == nil {
		return
	}
	var done []*Result
	p.mu.Lock()
	for _, r := range p.results {
		if r.Status.Terminal() {
			cpy := *r
			done = append(done, &cpy)
		}
	}
	p.mu.Unlock()
	p.cfg.OnFlush(done)
}

func (p *Pool) notify(idx int) {
	if p.cfg.OnUpdate == nil {
		return
	}
	p.mu.Lock()
	cpy := *p.results[idx]
	p.mu.Unlock()
	p.cfg.OnUpdate(idx, &cpy)
}
