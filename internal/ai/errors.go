package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AuthError means the provider rejected or never received credentials.
// Not retryable; surfaced to the user.
type AuthError struct {
	Provider string
	EnvVar   string
	Err      error
}

func (e *AuthError) Error() string {
	if e.EnvVar != "" && e.Err == nil {
		return fmt.Sprintf("%s: missing API key (set %s)", e.Provider, e.EnvVar)
	}
	return fmt.Sprintf("%s: authentication failed: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError means the provider throttled the request. Retryable by
// caller policy, never retried by the adapter itself.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// NetworkError covers transient transport failures reaching the provider.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UnsupportedModelError means the configured model name is unknown to the
// provider. Not retryable.
type UnsupportedModelError struct {
	Provider string
	Model    string
	Err      error
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("%s: model %q not supported: %v", e.Provider, e.Model, e.Err)
}

func (e *UnsupportedModelError) Unwrap() error { return e.Err }

// ErrorKind returns a short diagnostic label for a normalized provider error,
// safe to log alongside the provider name.
func ErrorKind(err error) string {
	var authErr *AuthError
	var rateErr *RateLimitError
	var netErr *NetworkError
	var modelErr *UnsupportedModelError
	switch {
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateErr):
		return "rate_limit"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &modelErr):
		return "unsupported_model"
	default:
		return "unknown"
	}
}

var authMarkers = []string{
	"401",
	"403",
	"unauthorized",
	"permission denied",
	"invalid api key",
	"invalid x-api-key",
	"incorrect api key",
	"authentication",
	"api key not valid",
}

var rateLimitMarkers = []string{
	"429",
	"rate limit",
	"too many requests",
	"quota",
	"resource exhausted",
	"overloaded",
}

var modelMarkers = []string{
	"model not found",
	"unknown model",
	"unsupported model",
	"model_not_found",
	"does not exist or you do not have access",
	"is not found for api version",
	"try pulling it first",
}

var networkMarkers = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"temporary failure",
	"service unavailable",
	"502",
	"503",
	"504",
	"no such host",
	"network unreachable",
	"broken pipe",
	"eof",
}

// Normalize maps an arbitrary provider SDK error onto the adapter error
// taxonomy so the reply generator never needs provider-specific handling.
// Already-typed errors pass through; unclassifiable failures are treated as
// transient network errors.
func Normalize(provider, model string, err error) error {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	var rateErr *RateLimitError
	var netErr *NetworkError
	var modelErr *UnsupportedModelError
	if errors.As(err, &authErr) || errors.As(err, &rateErr) ||
		errors.As(err, &netErr) || errors.As(err, &modelErr) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Provider: provider, Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return &RateLimitError{Provider: provider, Err: err}
		}
	}
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return &AuthError{Provider: provider, Err: err}
		}
	}
	for _, m := range modelMarkers {
		if strings.Contains(msg, m) {
			return &UnsupportedModelError{Provider: provider, Model: model, Err: err}
		}
	}
	for _, m := range networkMarkers {
		if strings.Contains(msg, m) {
			return &NetworkError{Provider: provider, Err: err}
		}
	}

	return &NetworkError{Provider: provider, Err: err}
}
