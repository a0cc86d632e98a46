// Package judge scores result files against golden answers: exact
// match first, then an LLM verdict for everything else.
package judge

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Jyzan/benchrun/internal/results"
	"github.com/Jyzan/benchrun/internal/task"
)

const judgeSystemPrompt = "You are a strict grader. Reply with exactly True or False."

const judgeTemplate = `Judge whether the candidate answer matches the golden answer in meaning.

Question: %s
Golden answer: %s
Candidate answer: %s

Rules:
1. True if the core meaning of the candidate matches the golden answer.
2. Ignore punctuation, casing and filler like "the answer is".
3. False if any number, entity or date differs.

Reply with exactly "True" or "False".`

// Method describes how an entry was decided.
const (
	MethodExact = "exact"
	MethodLLM   = "llm"
	MethodSkip  = "malformed"
)

// Detail is the per-entry verdict.
type Detail struct {
	Question string `json:"question"`
	Golden   string `json:"golden_answer"`
	Answer   string `json:"agent_result"`
	Correct  bool   `json:"correct"`
	Method   string `json:"method"`
	Error    string `json:"error,omitempty"`
}

// FileReport aggregates verdicts for one results file.
type FileReport struct {
	File      string   `json:"file"`
	Total     int      `json:"total"`
	Correct   int      `json:"correct"`
	Malformed int      `json:"malformed"`
	Details   []Detail `json:"details,omitempty"`
}

// Accuracy returns the correct percentage over scoreable entries.
func (r *FileReport) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total) * 100
}

// Judge scores result entries. The zero value is not usable; construct
// with New.
type Judge struct {
	client *openai.Client
	model  string
}

// Config holds judge endpoint parameters.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates a judge from the given config.
func New(cfg Config) (*Judge, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("judge model is not configured (set JUDGE_MODEL or DEFAULT_MODEL)")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Judge{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model}, nil
}

// ScoreFile loads a results file and scores every entry. Malformed
// entries (unparsable lines, missing question or golden answer) are
// counted as data-quality problems, not failures of the whole file.
func (j *Judge) ScoreFile(ctx context.Context, path string) (*FileReport, error) {
	items, malformed, err := results.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}

	report := &FileReport{File: path, Malformed: malformed}
	for _, item := range items {
		d := j.scoreEntry(ctx, item)
		if d.Method == MethodSkip {
			report.Malformed++
			continue
		}
		report.Total++
		if d.Correct {
			report.Correct++
		}
		report.Details = append(report.Details, d)
	}
	return report, nil
}

func (j *Judge) scoreEntry(ctx context.Context, r *task.Result) Detail {
	d := Detail{
		Question: r.Question,
		Golden:   r.GoldenAnswer,
		Answer:   r.AgentResult,
	}

	if r.Question == "" || r.GoldenAnswer == "" {
		d.Method = MethodSkip
		return d
	}

	golden := strings.TrimSpace(r.GoldenAnswer)
	answer := strings.TrimSpace(r.AgentResult)

	if golden == answer {
		d.Correct = true
		d.Method = MethodExact
		return d
	}

	correct, err := j.Verdict(ctx, r.Question, golden, answer)
	d.Method = MethodLLM
	if err != nil {
		d.Error = err.Error()
		return d
	}
	d.Correct = correct
	return d
}

// Verdict asks the judge model whether the answer matches the golden
// answer in meaning.
func (j *Judge) Verdict(ctx context.Context, question, golden, answer string) (bool, error) {
	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judgeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(judgeTemplate, question, golden, answer)},
		},
		Temperature: 0.01,
	})
	if err != nil {
		return false, fmt.Errorf("judge call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return false, fmt.Errorf("no choices in judge response")
	}

	verdict := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	return strings.Contains(verdict, "true"), nil
}
