// Package config loads the application configuration from TOML and
// environment variables, with koanf layering defaults under both.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/replydeck/internal/ai"
)

// ConfigError reports an invalid or incomplete configuration. It is only
// ever surfaced before a loop or server starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config is the full application configuration.
type Config struct {
	AI struct {
		Provider    string  `koanf:"provider"`
		Model       string  `koanf:"model"`
		Endpoint    string  `koanf:"endpoint"`
		Temperature float64 `koanf:"temperature"`
		MaxTokens   int     `koanf:"max_tokens"`
	} `koanf:"ai"`

	Reply struct {
		IntervalMinutes int    `koanf:"interval_minutes"`
		BrandContext    string `koanf:"brand_context"`
		SystemPrompt    string `koanf:"system_prompt"`
		TemplateOnly    bool   `koanf:"template_only"`
	} `koanf:"reply"`

	Twitter struct {
		BaseURL   string `koanf:"base_url"`
		Token     string `koanf:"token"`
		AccountID string `koanf:"account_id"`
		Handle    string `koanf:"handle"`
	} `koanf:"twitter"`

	Storage struct {
		MarkerPath  string `koanf:"marker_path"`
		QuotaPath   string `koanf:"quota_path"`
		QuotaLimit  int    `koanf:"quota_limit"`
		DatabaseURL string `koanf:"database_url"`
	} `koanf:"storage"`

	Server struct {
		Addr string `koanf:"addr"`
	} `koanf:"server"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// Interval returns the poll interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Reply.IntervalMinutes) * time.Minute
}

// Load reads configuration from configPath (or the default locations when
// empty), layered as defaults < TOML file < REPLYDECK_ environment variables.
func Load(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"ai.provider":            ai.ProviderOpenAI,
		"reply.interval_minutes": 5,
		"storage.marker_path":    "./replydeck/last_seen",
		"storage.quota_path":     "./replydeck/quota.json",
		"server.addr":            ":8787",
		"log.level":              "info",
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./replydeck.toml", "$HOME/.replydeck.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	k.Load(env.Provider("REPLYDECK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "REPLYDECK_")), "_", ".", -1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// Init writes a commented sample configuration file.
func Init(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# ReplyDeck Configuration

[ai]
provider = "openai"        # openai | anthropic | gemini | ollama
model = ""                 # empty uses the provider default
# endpoint = "http://localhost:11434"   # ollama only
temperature = 0.7
max_tokens = 100

[reply]
interval_minutes = 5
brand_context = ""
template_only = false

[twitter]
token = "your-bearer-token"
account_id = "your-account-id"
handle = "yourhandle"

[storage]
marker_path = "./replydeck/last_seen"
quota_path = "./replydeck/quota.json"
quota_limit = 500
# database_url = "postgres://localhost/replydeck"   # enables durable scheduling

[server]
addr = ":8787"

[log]
level = "info"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate checks the loaded configuration. Social credentials are required
// for anything that posts; the AI API key is deliberately not checked here
// because a missing key degrades to template replies at runtime.
func Validate(config *Config) error {
	if config.Reply.IntervalMinutes < 1 {
		return &ConfigError{Field: "reply.interval_minutes", Reason: "must be at least 1"}
	}

	if !config.Reply.TemplateOnly {
		if _, ok := ai.CanonicalName(config.AI.Provider); !ok {
			return &ConfigError{Field: "ai.provider", Reason: fmt.Sprintf("unknown provider %q", config.AI.Provider)}
		}
	}

	if config.Twitter.Token == "" {
		return &ConfigError{Field: "twitter.token", Reason: "bearer token is required"}
	}
	if config.Twitter.AccountID == "" {
		return &ConfigError{Field: "twitter.account_id", Reason: "account id is required"}
	}

	if config.Storage.MarkerPath == "" {
		return &ConfigError{Field: "storage.marker_path", Reason: "marker path is required"}
	}

	return nil
}
