package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.AI.Provider = "openai"
	cfg.Reply.IntervalMinutes = 5
	cfg.Twitter.Token = "token"
	cfg.Twitter.AccountID = "12345"
	cfg.Storage.MarkerPath = "./marker"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	// A named file that does not exist is an error...
	assert.Error(t, err)

	// ...while no file at all falls back to defaults.
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 5, cfg.Reply.IntervalMinutes)
	assert.Equal(t, ":8787", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replydeck.toml")
	content := `
[ai]
provider = "ollama"
model = "llama3.2"

[reply]
interval_minutes = 10
brand_context = "indie game studio"

[twitter]
token = "abc"
account_id = "42"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 10, cfg.Reply.IntervalMinutes)
	assert.Equal(t, "indie game studio", cfg.Reply.BrandContext)
	assert.Equal(t, "abc", cfg.Twitter.Token)
	assert.Equal(t, ":8787", cfg.Server.Addr, "untouched keys keep defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("REPLYDECK_TWITTER_TOKEN", "from-env")
	t.Setenv("REPLYDECK_AI_PROVIDER", "anthropic")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Twitter.Token)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidateIntervalTooShort(t *testing.T) {
	cfg := validConfig()
	cfg.Reply.IntervalMinutes = 0

	err := Validate(cfg)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "reply.interval_minutes", cerr.Field)
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Provider = "skynet"

	err := Validate(cfg)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "ai.provider", cerr.Field)
}

func TestValidateTemplateOnlySkipsProviderCheck(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Provider = ""
	cfg.Reply.TemplateOnly = true

	assert.NoError(t, Validate(cfg))
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Twitter.Token = ""
	assert.Error(t, Validate(cfg))

	cfg = validConfig()
	cfg.Twitter.AccountID = ""
	assert.Error(t, Validate(cfg))
}

func TestProviderAliasAcceptedByValidate(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Provider = "claude"
	assert.NoError(t, Validate(cfg))
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replydeck.toml")
	require.NoError(t, Init(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 5, cfg.Reply.IntervalMinutes)

	assert.Error(t, Init(path), "an existing file must not be clobbered")
}

func TestIntervalDuration(t *testing.T) {
	cfg := validConfig()
	cfg.Reply.IntervalMinutes = 3
	assert.Equal(t, "3m0s", cfg.Interval().String())
}
