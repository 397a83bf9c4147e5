package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replydeck/pkg/models"
)

func TestCanonicalName(t *testing.T) {
	cases := map[string]string{
		"openai":    ProviderOpenAI,
		"claude":    ProviderAnthropic,
		"anthropic": ProviderAnthropic,
		"googleai":  ProviderGemini,
		"gemini":    ProviderGemini,
		"local":     ProviderOllama,
		"ollama":    ProviderOllama,
	}
	for in, want := range cases {
		got, ok := CanonicalName(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	_, ok := CanonicalName("grok")
	assert.False(t, ok)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(models.ProviderConfig{Name: "nope"})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestNewAppliesDefaultModel(t *testing.T) {
	p, err := New(models.ProviderConfig{Name: "claude"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p.Name())

	adapter, ok := p.(*langchainAdapter)
	require.True(t, ok)
	assert.Equal(t, DefaultModel(ProviderAnthropic), adapter.cfg.Model)
}

func TestGenerateMissingKeyIsAuthError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	p, err := New(models.ProviderConfig{Name: ProviderOpenAI})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "hello", "", 100)
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "OPENAI_API_KEY", authErr.EnvVar)
}

func TestGenerateEmptyPromptRejected(t *testing.T) {
	p, err := New(models.ProviderConfig{Name: ProviderOllama})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "   ", "sys", 100)
	assert.Error(t, err)
}
