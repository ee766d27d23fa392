package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/seenimoa/stockchat/internal/config"
)

// ════════════════════════════════════════════════════════════════════
// provider.go
// ════════════════════════════════════════════════════════════════════

func TestDefaultProviderConfig(t *testing.T) {
	cfg := DefaultProviderConfig()
	if cfg.Model != "gemini-2.0-flash" || cfg.Temperature != 0.2 || cfg.MaxTokens != 2048 || cfg.Timeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestProviderConfigFrom(t *testing.T) {
	pc := ProviderConfigFrom(config.LLMConfig{
		GeminiKey:  "k",
		BaseURL:    "http://localhost:9999",
		Model:      "gemini-1.5-pro",
		TimeoutSec: 5,
	})
	if pc.APIKey != "k" || pc.BaseURL != "http://localhost:9999" || pc.Model != "gemini-1.5-pro" {
		t.Fatalf("unexpected config: %+v", pc)
	}
	if pc.Timeout != 5*time.Second {
		t.Errorf("Timeout: got %v, want 5s", pc.Timeout)
	}
	if pc.Temperature != 0.2 || pc.MaxTokens != 2048 {
		t.Errorf("unset fields should keep defaults: %+v", pc)
	}
}

func TestProviderConfigFromZeroTemperature(t *testing.T) {
	zero := 0.0
	pc := ProviderConfigFrom(config.LLMConfig{Temperature: &zero})
	if pc.Temperature != 0 {
		t.Errorf("Temperature: got %v, want 0", pc.Temperature)
	}
}

func TestCompleterFunc(t *testing.T) {
	var c Completer = CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	got, err := c.Complete(context.Background(), "hi")
	if err != nil || got != "echo: hi" {
		t.Fatalf("got %q, %v", got, err)
	}
}

// ════════════════════════════════════════════════════════════════════
// gemini.go
// ════════════════════════════════════════════════════════════════════

const geminiOK = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "The NYSE Composite closed higher."}]},
    "finishReason": "STOP"
  }],
  "usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 6, "totalTokenCount": 16}
}`

func TestGeminiProviderNew(t *testing.T) {
	p := NewGeminiProvider("test-key", WithGeminiModel("gemini-1.5-pro"), WithGeminiTimeout(time.Second))
	if p.Name() != "gemini" || p.Model() != "gemini-1.5-pro" {
		t.Fatalf("unexpected config: %+v", p)
	}
	if p.timeout != time.Second || p.maxTokens != 2048 {
		t.Fatalf("unexpected options: timeout=%v maxTokens=%d", p.timeout, p.maxTokens)
	}

	// No key is fine at construction time.
	if NewGeminiProvider("") == nil {
		t.Fatal("expected a provider without a key")
	}
}

func TestGeminiFromConfig(t *testing.T) {
	p := NewGeminiFromConfig(ProviderConfig{APIKey: "k", BaseURL: "http://x", Model: "m", Temperature: 0.5, MaxTokens: 10, Timeout: time.Minute})
	if p.apiKey != "k" || p.baseURL != "http://x" || p.model != "m" || p.temperature != 0.5 || p.maxTokens != 10 || p.timeout != time.Minute {
		t.Fatalf("unexpected provider: %+v", p)
	}
}

func TestGeminiComplete(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, geminiOK)
	}))
	defer server.Close()

	p := NewGeminiProvider("gem-key", WithGeminiBaseURL(server.URL))
	text, err := p.Complete(context.Background(), "How did NYA do?")
	if err != nil {
		t.Fatal(err)
	}
	if text != "The NYSE Composite closed higher." {
		t.Fatalf("unexpected text: %q", text)
	}
	if !strings.Contains(gotBody, "How did NYA do?") {
		t.Errorf("prompt missing from request body: %s", gotBody)
	}
}

func TestGeminiSendsZeroTemperature(t *testing.T) {
	var req struct {
		GenerationConfig struct {
			Temperature *float64 `json:"temperature"`
		} `json:"generationConfig"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, geminiOK)
	}))
	defer server.Close()

	p := NewGeminiProvider("gem-key", WithGeminiBaseURL(server.URL), WithGeminiTemperature(0))
	if _, err := p.Complete(context.Background(), "deterministic please"); err != nil {
		t.Fatal(err)
	}
	if req.GenerationConfig.Temperature == nil || *req.GenerationConfig.Temperature != 0 {
		t.Errorf("temperature 0 should be sent, got %v", req.GenerationConfig.Temperature)
	}
}

func TestGeminiReusesClient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, geminiOK)
	}))
	defer server.Close()

	p := NewGeminiProvider("gem-key", WithGeminiBaseURL(server.URL))
	for i := 0; i < 3; i++ {
		if _, err := p.Complete(context.Background(), fmt.Sprintf("q%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	first := p.client
	if _, err := p.Complete(context.Background(), "again"); err != nil {
		t.Fatal(err)
	}
	if p.client != first {
		t.Error("SDK client should be created once")
	}
	if calls.Load() != 4 {
		t.Errorf("calls: got %d, want 4", calls.Load())
	}
}

func TestGeminiNoAPIKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	p := NewGeminiProvider("", WithGeminiBaseURL(server.URL))
	_, err := p.Complete(context.Background(), "hello")
	if !errors.Is(err, ErrCompletionUnavailable) || !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey wrapped in ErrCompletionUnavailable, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("no request should be sent without a key")
	}
	if err := p.Ping(context.Background()); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Ping: got %v", err)
	}
}

func TestGeminiPing(t *testing.T) {
	if err := NewGeminiProvider("k").Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestGeminiAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"model not found","status":"INVALID_ARGUMENT"}}`)
	}))
	defer server.Close()

	p := NewGeminiProvider("gem-key", WithGeminiBaseURL(server.URL))
	_, err := p.Complete(context.Background(), "hello")
	if !errors.Is(err, ErrCompletionUnavailable) {
		t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
	}
}

func TestGeminiEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	p := NewGeminiProvider("gem-key", WithGeminiBaseURL(server.URL))
	_, err := p.Complete(context.Background(), "hello")
	if !errors.Is(err, ErrCompletionUnavailable) || !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeminiTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	p := NewGeminiProvider("gem-key", WithGeminiBaseURL(server.URL), WithGeminiTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := p.Complete(context.Background(), "hello")
	if !errors.Is(err, ErrCompletionUnavailable) {
		t.Fatalf("expected ErrCompletionUnavailable, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout not applied: took %v", time.Since(start))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrNoAPIKey},
		{http.StatusForbidden, ErrNoAPIKey},
		{http.StatusTooManyRequests, ErrRateLimit},
	}
	for _, tt := range tests {
		err := classify(genai.APIError{Code: tt.code, Message: "x"})
		if !errors.Is(err, tt.want) {
			t.Errorf("classify(%d): got %v, want %v", tt.code, err, tt.want)
		}
	}

	plain := errors.New("boom")
	if got := classify(plain); got != plain {
		t.Errorf("unclassified errors should pass through, got %v", got)
	}
}
