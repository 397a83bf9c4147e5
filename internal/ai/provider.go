package ai

import (
	"context"

	"github.com/replydeck/pkg/models"
)

// Provider wraps a single external text-generation backend behind a uniform
// request/response contract. Implementations perform exactly one outbound
// call per Generate invocation and never retry internally; retry policy
// belongs to the caller.
type Provider interface {
	// Generate produces reply text for the given prompts. maxTokens is
	// clamped to MaxReplyTokens. Failures are normalized to the adapter
	// error taxonomy (AuthError, RateLimitError, NetworkError,
	// UnsupportedModelError).
	Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error)

	// Name returns the provider's configured name.
	Name() string
}

// MaxReplyTokens bounds generation so replies stay near the platform limit.
const MaxReplyTokens = 300

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// ErrProviderNotFound is returned when a provider name is not recognized.
var ErrProviderNotFound = error(ErrorProviderNotFound("ai provider not found"))

// ErrorProviderNotFound is returned when an AI provider is not found.
type ErrorProviderNotFound string

func (e ErrorProviderNotFound) Error() string {
	return string(e)
}

type providerSpec struct {
	keyEnvVar    string
	defaultModel string
}

var providerSpecs = map[string]providerSpec{
	ProviderOpenAI:    {keyEnvVar: "OPENAI_API_KEY", defaultModel: "gpt-4o-mini"},
	ProviderAnthropic: {keyEnvVar: "ANTHROPIC_API_KEY", defaultModel: "claude-3-5-sonnet-20241022"},
	ProviderGemini:    {keyEnvVar: "GEMINI_API_KEY", defaultModel: "gemini-2.5-flash"},
	ProviderOllama:    {defaultModel: "llama3.2"},
}

// aliases tolerated in configuration files.
var providerAliases = map[string]string{
	"claude":   ProviderAnthropic,
	"googleai": ProviderGemini,
	"local":    ProviderOllama,
}

// CanonicalName resolves aliases like "claude" to the canonical provider
// name, returning ok=false for unknown names.
func CanonicalName(name string) (string, bool) {
	if _, ok := providerSpecs[name]; ok {
		return name, true
	}
	if canonical, ok := providerAliases[name]; ok {
		return canonical, true
	}
	return "", false
}

// KeyEnvVar returns the environment variable holding the API key for the
// named provider; empty for providers that need none (ollama).
func KeyEnvVar(name string) string {
	canonical, ok := CanonicalName(name)
	if !ok {
		return ""
	}
	return providerSpecs[canonical].keyEnvVar
}

// DefaultModel returns the model used when configuration does not name one.
func DefaultModel(name string) string {
	canonical, ok := CanonicalName(name)
	if !ok {
		return ""
	}
	return providerSpecs[canonical].defaultModel
}

// New creates the adapter selected by cfg.Name. Unknown names return
// ErrProviderNotFound; callers treat that as a configuration error and must
// not start any loop with a broken adapter.
func New(cfg models.ProviderConfig) (Provider, error) {
	canonical, ok := CanonicalName(cfg.Name)
	if !ok {
		return nil, ErrProviderNotFound
	}
	cfg.Name = canonical
	if cfg.Model == "" {
		cfg.Model = DefaultModel(canonical)
	}
	return newLangchainAdapter(cfg), nil
}
