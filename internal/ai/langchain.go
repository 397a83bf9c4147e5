package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/replydeck/pkg/models"
)

const defaultOllamaURL = "http://localhost:11434"

// langchainAdapter implements Provider on top of langchaingo. The underlying
// client is built lazily on first use so a missing API key surfaces as an
// AuthError from Generate rather than crashing startup in template mode.
type langchainAdapter struct {
	cfg models.ProviderConfig

	mu  sync.Mutex
	llm llms.Model
}

func newLangchainAdapter(cfg models.ProviderConfig) *langchainAdapter {
	return &langchainAdapter{cfg: cfg}
}

func (a *langchainAdapter) Name() string {
	return a.cfg.Name
}

func (a *langchainAdapter) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%s: prompt must not be empty", a.cfg.Name)
	}
	if maxTokens <= 0 || maxTokens > MaxReplyTokens {
		maxTokens = MaxReplyTokens
	}

	llm, err := a.client(ctx)
	if err != nil {
		return "", err
	}

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	if systemPrompt != "" {
		msgs = append([]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		}, msgs...)
	}

	opts := []llms.CallOption{
		llms.WithMaxTokens(maxTokens),
	}
	if a.cfg.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(a.cfg.Temperature))
	}
	if a.cfg.Model != "" {
		opts = append(opts, llms.WithModel(a.cfg.Model))
	}

	log.Debug().
		Str("provider", a.cfg.Name).
		Str("model", a.cfg.Model).
		Int("max_tokens", maxTokens).
		Msg("Calling AI provider")

	resp, err := llm.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", Normalize(a.cfg.Name, a.cfg.Model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", &NetworkError{Provider: a.cfg.Name, Err: fmt.Errorf("empty completion")}
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// client builds the langchaingo model on first use and caches it. A failed
// build is not cached so a later call can succeed once the environment is
// fixed.
func (a *langchainAdapter) client(ctx context.Context) (llms.Model, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.llm != nil {
		return a.llm, nil
	}

	apiKey := ""
	if envVar := KeyEnvVar(a.cfg.Name); envVar != "" {
		apiKey = strings.TrimSpace(os.Getenv(envVar))
		if apiKey == "" {
			return nil, &AuthError{Provider: a.cfg.Name, EnvVar: envVar}
		}
	}

	var model llms.Model
	var err error
	switch a.cfg.Name {
	case ProviderOpenAI:
		model, err = a.buildOpenAI(apiKey)
	case ProviderAnthropic:
		model, err = a.buildAnthropic(apiKey)
	case ProviderGemini:
		model, err = a.buildGemini(ctx, apiKey)
	case ProviderOllama:
		model, err = a.buildOllama()
	default:
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, Normalize(a.cfg.Name, a.cfg.Model, err)
	}

	a.llm = model
	return model, nil
}

func (a *langchainAdapter) buildOpenAI(apiKey string) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(a.cfg.Model),
	}
	if a.cfg.EndpointURL != "" {
		opts = append(opts, openai.WithBaseURL(a.cfg.EndpointURL))
	}
	return openai.New(opts...)
}

func (a *langchainAdapter) buildAnthropic(apiKey string) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithToken(apiKey),
		anthropic.WithModel(a.cfg.Model),
	}
	return anthropic.New(opts...)
}

func (a *langchainAdapter) buildGemini(ctx context.Context, apiKey string) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(a.cfg.Model),
	}
	return googleai.New(ctx, opts...)
}

func (a *langchainAdapter) buildOllama() (llms.Model, error) {
	serverURL := a.cfg.EndpointURL
	if serverURL == "" {
		serverURL = defaultOllamaURL
	}
	opts := []ollama.Option{
		ollama.WithServerURL(serverURL),
		ollama.WithModel(a.cfg.Model),
	}
	return ollama.New(opts...)
}
