// Package llm provides the completion service used to answer chat
// questions. Gemini, through the official genai SDK, is the only backend.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/seenimoa/stockchat/internal/config"
)

// ProviderGemini names the Gemini backend in logs and status output.
const ProviderGemini = "gemini"

// Common errors returned by completion providers.
var (
	ErrCompletionUnavailable = errors.New("llm: completion unavailable")
	ErrNoAPIKey              = errors.New("llm: API key not configured")
	ErrRateLimit             = errors.New("llm: rate limit exceeded")
	ErrEmptyResponse         = errors.New("llm: empty response")
)

// Completer turns a prompt into generated text.
//
// Implementations make a single attempt per call. Every failure wraps
// ErrCompletionUnavailable.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ProviderConfig holds common configuration for creating a provider.
type ProviderConfig struct {
	APIKey      string        `json:"api_key,omitempty"`
	BaseURL     string        `json:"base_url,omitempty"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Timeout     time.Duration `json:"timeout"`
}

// DefaultProviderConfig returns the defaults used when no config is given.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Model:       "gemini-2.0-flash",
		Temperature: 0.2,
		MaxTokens:   2048,
		Timeout:     30 * time.Second,
	}
}

// ProviderConfigFrom converts the llm config section, keeping defaults for
// unset fields.
func ProviderConfigFrom(cfg config.LLMConfig) ProviderConfig {
	pc := DefaultProviderConfig()
	pc.APIKey = cfg.GeminiKey
	pc.BaseURL = cfg.BaseURL
	if cfg.Model != "" {
		pc.Model = cfg.Model
	}
	if cfg.Temperature != nil {
		pc.Temperature = *cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		pc.MaxTokens = cfg.MaxTokens
	}
	if cfg.TimeoutSec > 0 {
		pc.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	return pc
}
