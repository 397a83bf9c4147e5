package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind string
	}{
		{"unauthorized", fmt.Errorf("API returned 401 Unauthorized"), "auth"},
		{"invalid key", fmt.Errorf("invalid api key provided"), "auth"},
		{"rate limit", fmt.Errorf("429 Too Many Requests"), "rate_limit"},
		{"quota", fmt.Errorf("Quota exceeded for this project"), "rate_limit"},
		{"model missing", fmt.Errorf("model not found: gpt-9"), "unsupported_model"},
		{"ollama pull", fmt.Errorf(`model "mistral" not found, try pulling it first`), "unsupported_model"},
		{"refused", fmt.Errorf("dial tcp: connection refused"), "network"},
		{"timeout", fmt.Errorf("request timeout"), "network"},
		{"unclassified", fmt.Errorf("something odd"), "network"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize("openai", "gpt-4o-mini", tc.err)
			require.Error(t, got)
			assert.Equal(t, tc.kind, ErrorKind(got))
		})
	}
}

func TestNormalizeContextErrors(t *testing.T) {
	got := Normalize("gemini", "gemini-2.5-flash", context.DeadlineExceeded)
	assert.Equal(t, "network", ErrorKind(got))
	assert.True(t, errors.Is(got, context.DeadlineExceeded))
}

func TestNormalizePassthrough(t *testing.T) {
	orig := &AuthError{Provider: "anthropic", EnvVar: "ANTHROPIC_API_KEY"}
	got := Normalize("anthropic", "", orig)
	assert.Same(t, error(orig), got)
}

func TestNormalizeNil(t *testing.T) {
	assert.NoError(t, Normalize("openai", "", nil))
}

func TestQuotaBeatsKeyWording(t *testing.T) {
	// Quota failures often mention the API key; they must still classify as
	// rate limit, not auth.
	err := fmt.Errorf("quota exceeded - the api key is valid but throttled")
	assert.Equal(t, "rate_limit", ErrorKind(Normalize("gemini", "", err)))
}
