package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Jyzan/benchrun/internal/task"
)

// LoadTasks reads and validates a benchmark task file. Files ending in
// .json are parsed as a JSON array; everything else is treated as
// newline-delimited JSON, one task per line.
func LoadTasks(path string) ([]task.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	defer f.Close()

	var tasks []task.Task
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := json.NewDecoder(f).Decode(&tasks); err != nil {
			return nil, fmt.Errorf("parse tasks file %s: %w", path, err)
		}
	} else {
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			var t task.Task
			if err := json.Unmarshal([]byte(text), &t); err != nil {
				return nil, fmt.Errorf("parse tasks file %s line %d: %w", path, line, err)
			}
			tasks = append(tasks, t)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read tasks file %s: %w", path, err)
		}
	}

	if err := task.Validate(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
