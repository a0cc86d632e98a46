package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAPI_FromEnvFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_BASE", "")
	t.Setenv("DEFAULT_MODEL", "")
	t.Setenv("JUDGE_MODEL", "")

	path := filepath.Join(t.TempDir(), ".env")
	content := `OPENAI_API_KEY=sk-test-1234
OPENAI_API_BASE=https://api.example.com/v1
DEFAULT_MODEL=test-model
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	api, err := LoadAPI(path)
	if err != nil {
		t.Fatal(err)
	}
	if api.Key != "sk-test-1234" {
		t.Errorf("key: got %q", api.Key)
	}
	if api.BaseURL != "https://api.example.com/v1" {
		t.Errorf("base url: got %q", api.BaseURL)
	}
	if api.Model != "test-model" {
		t.Errorf("model: got %q", api.Model)
	}
	// judge model falls back to the default model
	if api.JudgeModel != "test-model" {
		t.Errorf("judge model fallback: got %q", api.JudgeModel)
	}
}

func TestLoadAPI_MissingKeyFatal(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := LoadAPI(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error when API key is not set")
	}
}

func TestLoadAPI_ExportedVarsOnly(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-exported")
	t.Setenv("JUDGE_MODEL", "judge-x")
	t.Setenv("DEFAULT_MODEL", "model-y")

	api, err := LoadAPI(filepath.Join(t.TempDir(), "nope.env"))
	if err != nil {
		t.Fatal(err)
	}
	if api.Key != "sk-exported" {
		t.Errorf("key: got %q", api.Key)
	}
	if api.JudgeModel != "judge-x" {
		t.Errorf("judge model: got %q", api.JudgeModel)
	}
}

func TestAPI_Redacted(t *testing.T) {
	api := &API{Key: "sk-abcdef1234"}
	got := api.Redacted()
	if got != "****1234" {
		t.Errorf("redacted: got %q", got)
	}
	short := &API{Key: "ab"}
	if short.Redacted() != "****" {
		t.Errorf("short key should be fully masked, got %q", short.Redacted())
	}
}
