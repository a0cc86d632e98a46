// Package solver answers benchmark questions through an
// OpenAI-compatible chat completion endpoint.
package solver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Jyzan/benchrun/internal/task"
)

const systemPrompt = "You are a research assistant answering benchmark questions. " +
	"Reason carefully, then give a single final answer. " +
	"Reply with the answer only, no preamble."

// Solver produces an answer for a single task.
type Solver interface {
	Solve(ctx context.Context, t *task.Task) (string, error)
}

// Config holds model call parameters.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// OpenAISolver calls a chat completion endpoint. Works with any
// OpenAI-compatible provider via BaseURL.
type OpenAISolver struct {
	client *openai.Client
	cfg    Config
}

// New creates a solver from the given config.
func New(cfg Config) (*OpenAISolver, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("solver model is not configured (set DEFAULT_MODEL)")
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 32768
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAISolver{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Solve sends the question and returns the model's final answer.
// Attachments are referenced by name only; their content is not
// decoded or uploaded.
func (s *OpenAISolver) Solve(ctx context.Context, t *task.Task) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(t)},
		},
		MaxCompletionTokens: s.cfg.MaxTokens,
		Temperature:         s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("empty answer from model")
	}

	slog.Debug("task solved", "task", t.Key(), "answer_len", len(answer))
	return answer, nil
}

// BuildPrompt renders a task into the user message. Exported for
// testing.
func BuildPrompt(t *task.Task) string {
	if len(t.Attachments) == 0 {
		return t.Question
	}

	var b strings.Builder
	b.WriteString(t.Question)
	if len(t.Attachments) == 1 {
		b.WriteString("\n\nTo solve the task above, you will have to use this attached file: ")
		b.WriteString(t.Attachments[0])
	} else {
		b.WriteString("\n\nTo solve the task above, you will have to use these attached files:")
		for _, a := range t.Attachments {
			b.WriteString("\n- ")
			b.WriteString(a)
		}
	}
	return b.String()
}
