package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// exampleDoc mirrors Config but keeps durations as strings so the generated
// file reads as "30s" rather than raw nanoseconds.
type exampleDoc struct {
	Listen    string                     `yaml:"listen"`
	Password  string                     `yaml:"password"`
	Owner     string                     `yaml:"owner"`
	Providers map[string]exampleProvider `yaml:"providers"`
	Store     exampleStore               `yaml:"store"`
}

type exampleProvider struct {
	Type        string   `yaml:"type"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	Model       string   `yaml:"model"`
	APIKeys     []string `yaml:"api_keys"`
	Priority    int      `yaml:"priority"`
	Timeout     string   `yaml:"timeout"`
	MaxAttempts int      `yaml:"max_attempts"`
	Backoff     string   `yaml:"backoff"`
}

type exampleStore struct {
	Token   string `yaml:"token"`
	BaseID  string `yaml:"base_id"`
	TableID string `yaml:"table_id"`
	Timeout string `yaml:"timeout"`
}

// WriteExample writes a starting config to dir/config.yaml, refusing to
// overwrite an existing one.
func WriteExample(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists at %s", path)
	}

	doc := exampleDoc{
		Listen:   ":5000",
		Password: "$MEMORYBOT_UI_PASSWORD",
		Owner:    "Krishna",
		Providers: map[string]exampleProvider{
			"openrouter": {
				Type:        "openai",
				BaseURL:     "https://openrouter.ai/api/v1",
				Model:       "openai/gpt-oss-20b:free",
				APIKeys:     []string{"$OPENROUTER_API_KEY_1", "$OPENROUTER_API_KEY_2", "$OPENROUTER_API_KEY_3"},
				Priority:    0,
				Timeout:     "30s",
				MaxAttempts: 3,
				Backoff:     "500ms",
			},
			"anthropic": {
				Type:        "anthropic",
				Model:       "claude-3-5-haiku-latest",
				APIKeys:     []string{"$ANTHROPIC_API_KEY"},
				Priority:    1,
				Timeout:     "30s",
				MaxAttempts: 3,
				Backoff:     "500ms",
			},
		},
		Store: exampleStore{
			Token:   "$AIRTABLE_TOKEN",
			BaseID:  "$AIRTABLE_BASE_ID",
			TableID: "$AIRTABLE_TABLE_ID",
			Timeout: "15s",
		},
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
