// Package watch runs benchmarks automatically as task files appear in
// a drop directory. Each file is executed once and then moved to
// done/ or failed/ so nothing is lost or run twice.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the debounce interval for file events.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// RunFn executes one task file. Injected by the cli package to avoid
// an import cycle.
type RunFn func(ctx context.Context, tasksFile string) error

// Config holds watcher configuration.
type Config struct {
	Dir      string // directory to watch for task files
	PollMode bool   // fall back to polling if fsnotify unavailable
	RunFn    RunFn
}

// Watcher executes task files dropped into a directory.
type Watcher struct {
	cfg Config
}

// New creates a watcher with validated configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if cfg.RunFn == nil {
		return nil, fmt.Errorf("run function is required")
	}
	return &Watcher{cfg: cfg}, nil
}

// Run starts the watcher. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for _, d := range []string{w.cfg.Dir, w.doneDir(), w.failedDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("ensure directories: %w", err)
		}
	}

	slog.Info("watch starting", "dir", w.cfg.Dir)

	if err := w.scanExisting(ctx); err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	if w.cfg.PollMode {
		return w.runPollWatcher(ctx)
	}
	return w.runFSWatcher(ctx)
}

func (w *Watcher) doneDir() string   { return filepath.Join(w.cfg.Dir, "done") }
func (w *Watcher) failedDir() string { return filepath.Join(w.cfg.Dir, "failed") }

// scanExisting processes any task files already in the directory.
func (w *Watcher) scanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isTaskFile(e.Name()) {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		w.process(ctx, filepath.Join(w.cfg.Dir, e.Name()))
	}
	return nil
}

// runFSWatcher watches the directory using fsnotify.
func (w *Watcher) runFSWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	slog.Info("watching for task files", "mode", "fsnotify", "dir", w.cfg.Dir)

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range pending {
				t.Stop()
			}
			mu.Unlock()
			slog.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isTaskFile(filepath.Base(event.Name)) {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(debounceDefault, func() {
				w.process(ctx, path)
				mu.Lock()
				delete(pending, path)
				mu.Unlock()
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// runPollWatcher polls the directory on an interval.
func (w *Watcher) runPollWatcher(ctx context.Context) error {
	slog.Info("watching for task files", "mode", "poll", "dir", w.cfg.Dir)
	ticker := time.NewTicker(pollDefault)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil
		case <-ticker.C:
			if err := w.scanExisting(ctx); err != nil {
				slog.Error("poll scan", "error", err)
			}
		}
	}
}

// process runs one task file and moves it to done/ or failed/.
func (w *Watcher) process(ctx context.Context, path string) {
	name := filepath.Base(path)
	if _, err := os.Stat(path); err != nil {
		return // already moved by a previous debounce fire
	}

	slog.Info("running task file", "file", name)
	err := w.cfg.RunFn(ctx, path)

	dest := filepath.Join(w.doneDir(), name)
	if err != nil {
		slog.Error("task file failed", "file", name, "error", err)
		dest = filepath.Join(w.failedDir(), name)
	} else {
		slog.Info("task file done", "file", name)
	}
	if mvErr := os.Rename(path, dest); mvErr != nil {
		slog.Error("move task file", "file", name, "error", mvErr)
	}
}

func isTaskFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".jsonl")
}
