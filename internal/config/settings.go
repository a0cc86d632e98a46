package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds persistent CLI defaults loaded from a config file.
type Settings struct {
	Concurrency     int           `yaml:"concurrency"`
	SummaryInterval int           `yaml:"summary_interval"`
	TaskTimeout     time.Duration `yaml:"task_timeout"`
	ResultsDir      string        `yaml:"results_dir"`
	EnvFile         string        `yaml:"env_file"`

	// Model overrides; env vars win when these are empty
	Model      string `yaml:"model,omitempty"`
	JudgeModel string `yaml:"judge_model,omitempty"`

	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`

	// Watch command defaults
	WatchDir string `yaml:"watch_dir,omitempty"`

	// History database path; defaults to .benchrun/history.db, "off" disables
	HistoryDB string `yaml:"history_db,omitempty"`
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &s, nil
}
