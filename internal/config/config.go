package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Listen    string                    `yaml:"listen" mapstructure:"listen"`
	Password  string                    `yaml:"password" mapstructure:"password"`
	Owner     string                    `yaml:"owner" mapstructure:"owner"`
	Providers map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	Store     StoreConfig               `yaml:"store" mapstructure:"store"`
}

// ProviderConfig describes one LM backend. Immutable after load; a provider
// with an empty key pool is a startup error, never a per-request one.
type ProviderConfig struct {
	Type        string        `yaml:"type" mapstructure:"type"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKeys     []string      `yaml:"api_keys" mapstructure:"api_keys"`
	Priority    int           `yaml:"priority" mapstructure:"priority"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`
}

type StoreConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Token   string        `yaml:"token" mapstructure:"token"`
	BaseID  string        `yaml:"base_id" mapstructure:"base_id"`
	TableID string        `yaml:"table_id" mapstructure:"table_id"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func DefaultConfig() *Config {
	return &Config{
		Listen: ":5000",
		Owner:  "the account owner",
		Providers: map[string]ProviderConfig{
			"openrouter": {
				Type:    "openai",
				BaseURL: "https://openrouter.ai/api/v1",
				Model:   "openai/gpt-oss-20b:free",
				APIKeys: []string{"$OPENROUTER_API_KEY"},
			},
		},
		Store: StoreConfig{
			Token:   "$AIRTABLE_TOKEN",
			BaseID:  "$AIRTABLE_BASE_ID",
			TableID: "$AIRTABLE_TABLE_ID",
		},
	}
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "memorybot"))
	}
	home, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(home, ".config", "memorybot"))

	viper.SetEnvPrefix("MEMORYBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file; defaults plus environment still have to validate.
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Credentials in the file may reference environment variables.
	for name, p := range cfg.Providers {
		p.BaseURL = expandEnv(p.BaseURL)
		for i, k := range p.APIKeys {
			p.APIKeys[i] = expandEnv(k)
		}
		p.APIKeys = dropUnset(p.APIKeys)
		cfg.Providers[name] = p
	}
	cfg.Store.Token = expandEnv(cfg.Store.Token)
	cfg.Store.BaseID = expandEnv(cfg.Store.BaseID)
	cfg.Store.TableID = expandEnv(cfg.Store.TableID)
	cfg.Password = expandEnv(cfg.Password)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// dropUnset removes keys whose environment variable was never set, so an
// optional OPENROUTER_API_KEY_3 slot does not poison the rotation.
func dropUnset(keys []string) []string {
	var out []string
	for _, k := range keys {
		if k != "" && !strings.HasPrefix(k, "$") {
			out = append(out, k)
		}
	}
	return out
}

// Validate enforces the startup invariants: at least one provider, no empty
// key pool, a reachable store. Defaults are filled in place.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: at least one provider is required")
	}
	validTypes := map[string]bool{"openai": true, "anthropic": true, "gemini": true}
	for name, p := range c.Providers {
		if !validTypes[p.Type] {
			return fmt.Errorf("config: provider %q has invalid type %q (must be openai, anthropic, or gemini)", name, p.Type)
		}
		if p.Type == "openai" && p.BaseURL == "" {
			return fmt.Errorf("config: provider %q (type openai) requires base_url", name)
		}
		if p.Model == "" {
			return fmt.Errorf("config: provider %q requires model", name)
		}
		if len(p.APIKeys) == 0 {
			return fmt.Errorf("config: provider %q has no usable api_keys", name)
		}
		if p.Timeout <= 0 {
			p.Timeout = 30 * time.Second
		}
		if p.MaxAttempts <= 0 {
			p.MaxAttempts = 3
		}
		if p.Backoff <= 0 {
			p.Backoff = 500 * time.Millisecond
		}
		c.Providers[name] = p
	}
	if c.Store.Token == "" || strings.HasPrefix(c.Store.Token, "$") {
		return fmt.Errorf("config: store token is required")
	}
	if c.Store.BaseID == "" || strings.HasPrefix(c.Store.BaseID, "$") {
		return fmt.Errorf("config: store base_id is required")
	}
	if c.Store.TableID == "" || strings.HasPrefix(c.Store.TableID, "$") {
		return fmt.Errorf("config: store table_id is required")
	}
	if c.Store.Timeout <= 0 {
		c.Store.Timeout = 15 * time.Second
	}
	if c.Listen == "" {
		c.Listen = ":5000"
	}
	return nil
}
