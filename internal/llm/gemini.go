package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements Completer on Google's Gemini API.
//
// The SDK client is created on the first Complete call, so a provider
// without an API key can be constructed and only fails when used.
type GeminiProvider struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	httpClient  *http.Client

	mu     sync.Mutex
	client *genai.Client
}

// GeminiOption configures the Gemini provider.
type GeminiOption func(*GeminiProvider)

// WithGeminiModel sets the model.
func WithGeminiModel(model string) GeminiOption {
	return func(p *GeminiProvider) { p.model = model }
}

// WithGeminiBaseURL points the SDK at a different endpoint.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(p *GeminiProvider) { p.baseURL = url }
}

// WithGeminiTimeout bounds every Complete call.
func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(p *GeminiProvider) { p.timeout = d }
}

// WithGeminiTemperature sets the sampling temperature.
func WithGeminiTemperature(t float64) GeminiOption {
	return func(p *GeminiProvider) { p.temperature = t }
}

// WithGeminiMaxTokens caps the generated output.
func WithGeminiMaxTokens(n int) GeminiOption {
	return func(p *GeminiProvider) { p.maxTokens = n }
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(p *GeminiProvider) { p.httpClient = client }
}

// NewGeminiProvider creates a Gemini provider. An empty apiKey is accepted;
// Complete then fails with ErrNoAPIKey.
func NewGeminiProvider(apiKey string, opts ...GeminiOption) *GeminiProvider {
	def := DefaultProviderConfig()
	p := &GeminiProvider{
		apiKey:      apiKey,
		model:       def.Model,
		temperature: def.Temperature,
		maxTokens:   def.MaxTokens,
		timeout:     def.Timeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewGeminiFromConfig creates a provider from a ProviderConfig.
func NewGeminiFromConfig(cfg ProviderConfig) *GeminiProvider {
	return NewGeminiProvider(cfg.APIKey,
		WithGeminiModel(cfg.Model),
		WithGeminiBaseURL(cfg.BaseURL),
		WithGeminiTemperature(cfg.Temperature),
		WithGeminiMaxTokens(cfg.MaxTokens),
		WithGeminiTimeout(cfg.Timeout),
	)
}

func (p *GeminiProvider) Name() string  { return ProviderGemini }
func (p *GeminiProvider) Model() string { return p.model }

// Ping reports whether the provider is usable. It does not call the API.
func (p *GeminiProvider) Ping(_ context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("%w: %w", ErrCompletionUnavailable, ErrNoAPIKey)
	}
	return nil
}

// Complete sends prompt as a single user turn and returns the text of the
// first candidate.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := p.sdk(ctx)
	if err != nil {
		return "", err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(p.temperature)),
	}
	if p.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.maxTokens)
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", ErrCompletionUnavailable, classify(err))
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: gemini: %w", ErrCompletionUnavailable, ErrEmptyResponse)
	}
	return text, nil
}

// sdk returns the SDK client, creating it on first use.
func (p *GeminiProvider) sdk(ctx context.Context) (*genai.Client, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: %w", ErrCompletionUnavailable, ErrNoAPIKey)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     p.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: create client: %w", ErrCompletionUnavailable, err)
	}
	p.client = client
	return client, nil
}

// classify maps API status codes onto the package errors while keeping the
// original error in the chain.
func classify(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrNoAPIKey, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimit, err)
	}
	return err
}
