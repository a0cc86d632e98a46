package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// API holds the model endpoint configuration read from the environment
// file. Passed explicitly to the solver and judge instead of being
// consulted as ambient process state.
type API struct {
	Key        string
	BaseURL    string
	Model      string
	JudgeModel string
}

// LoadAPI loads the env file (when present) and reads the endpoint
// configuration. A missing env file is fine, the variables may already
// be exported; a missing API key is not.
func LoadAPI(envFile string) (*API, error) {
	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load env file %s: %w", envFile, err)
			}
			slog.Debug("no env file found", "path", envFile)
		} else {
			slog.Info("loaded environment", "path", envFile)
		}
	}

	api := &API{
		Key:        os.Getenv("OPENAI_API_KEY"),
		BaseURL:    os.Getenv("OPENAI_API_BASE"),
		Model:      os.Getenv("DEFAULT_MODEL"),
		JudgeModel: os.Getenv("JUDGE_MODEL"),
	}

	if api.Key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set (add it to %s or export it)", envFile)
	}
	if api.JudgeModel == "" {
		api.JudgeModel = api.Model
	}
	return api, nil
}

// Redacted returns the API key in log-safe form.
func (a *API) Redacted() string {
	if len(a.Key) <= 4 {
		return "****"
	}
	return "****" + a.Key[len(a.Key)-4:]
}
