package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STOCKCHAT_LLM_GEMINI_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("STOCKCHAT_LLM_GEMINI_KEY")
	os.Unsetenv("GEMINI_API_KEY")
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Data defaults
	if cfg.Data.Dir != "./data" {
		t.Errorf("Data.Dir: got %q, want %q", cfg.Data.Dir, "./data")
	}
	if cfg.Data.InfoFile != "indexInfo.csv" {
		t.Errorf("Data.InfoFile: got %q", cfg.Data.InfoFile)
	}
	if cfg.Data.BarsFile != "indexData.csv" {
		t.Errorf("Data.BarsFile: got %q", cfg.Data.BarsFile)
	}
	if cfg.Data.ProcessedFile != "indexProcessed.csv" {
		t.Errorf("Data.ProcessedFile: got %q", cfg.Data.ProcessedFile)
	}
	if cfg.Data.CacheTTL != 300 {
		t.Errorf("Data.CacheTTL: got %d, want 300", cfg.Data.CacheTTL)
	}

	// LLM defaults
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("LLM.Model: got %q, want %q", cfg.LLM.Model, "gemini-2.0-flash")
	}
	if cfg.LLM.Temperature == nil || *cfg.LLM.Temperature != 0.2 {
		t.Errorf("LLM.Temperature: got %v, want 0.2", cfg.LLM.Temperature)
	}
	if cfg.LLM.TimeoutSec != 30 {
		t.Errorf("LLM.TimeoutSec: got %d, want 30", cfg.LLM.TimeoutSec)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Errorf("LLM.MaxTokens: got %d, want 2048", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.GeminiKey != "" {
		t.Errorf("LLM.GeminiKey should be empty, got %q", cfg.LLM.GeminiKey)
	}

	// Router defaults
	if len(cfg.Router.Symbols) != len(DefaultSymbols) {
		t.Fatalf("Router.Symbols: got %d entries, want %d", len(cfg.Router.Symbols), len(DefaultSymbols))
	}
	for i, kw := range cfg.Router.Symbols {
		if kw.Phrase != DefaultSymbols[i] || kw.Match != "token" {
			t.Errorf("Router.Symbols[%d]: got %+v", i, kw)
		}
	}
	if len(cfg.Router.Regions) != len(DefaultRegions) {
		t.Fatalf("Router.Regions: got %d entries, want %d", len(cfg.Router.Regions), len(DefaultRegions))
	}
	if cfg.Router.Regions[5].Phrase != "hong kong" || cfg.Router.Regions[5].Match != "substring" {
		t.Errorf("Router.Regions[5]: got %+v", cfg.Router.Regions[5])
	}
	if cfg.Router.BarLimit != 5 {
		t.Errorf("Router.BarLimit: got %d, want 5", cfg.Router.BarLimit)
	}
	if cfg.Router.LatestBars {
		t.Error("Router.LatestBars should default to false")
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8000 {
		t.Errorf("API.Port: got %d, want 8000", cfg.API.Port)
	}
	if cfg.API.Addr() != "0.0.0.0:8000" {
		t.Errorf("API.Addr(): got %q", cfg.API.Addr())
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "*" {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}

	// Client defaults
	if cfg.Client.BaseURL != "http://localhost:8000" {
		t.Errorf("Client.BaseURL: got %q", cfg.Client.BaseURL)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
data:
  dir: "/srv/market"
  cache_ttl: 0
llm:
  gemini_key: "AIzaSy-config-key-123456"
  model: "gemini-1.5-pro"
  temperature: 0
  timeout_sec: 10
router:
  symbols:
    - phrase: "hsi"
      match: "token"
  regions:
    - phrase: "india"
      match: "substring"
  bar_limit: 3
  latest_bars: true
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Data.Dir != "/srv/market" {
		t.Errorf("Data.Dir: got %q", cfg.Data.Dir)
	}
	if cfg.Data.CacheTTL != 0 {
		t.Errorf("Data.CacheTTL: got %d, want 0", cfg.Data.CacheTTL)
	}
	if cfg.Data.InfoFile != "indexInfo.csv" {
		t.Errorf("Data.InfoFile should keep default, got %q", cfg.Data.InfoFile)
	}
	if cfg.LLM.GeminiKey != "AIzaSy-config-key-123456" {
		t.Errorf("LLM.GeminiKey: got %q", cfg.LLM.GeminiKey)
	}
	if cfg.LLM.Model != "gemini-1.5-pro" {
		t.Errorf("LLM.Model: got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature == nil || *cfg.LLM.Temperature != 0 {
		t.Errorf("LLM.Temperature: got %v, want explicit 0", cfg.LLM.Temperature)
	}
	if cfg.LLM.TimeoutSec != 10 {
		t.Errorf("LLM.TimeoutSec: got %d, want 10", cfg.LLM.TimeoutSec)
	}
	if len(cfg.Router.Symbols) != 1 || cfg.Router.Symbols[0].Phrase != "hsi" {
		t.Errorf("Router.Symbols: got %+v", cfg.Router.Symbols)
	}
	if len(cfg.Router.Regions) != 1 || cfg.Router.Regions[0].Phrase != "india" {
		t.Errorf("Router.Regions: got %+v", cfg.Router.Regions)
	}
	if cfg.Router.BarLimit != 3 || !cfg.Router.LatestBars {
		t.Errorf("Router: got limit=%d latest=%v", cfg.Router.BarLimit, cfg.Router.LatestBars)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnvPrefixed(t *testing.T) {
	t.Setenv("STOCKCHAT_LLM_GEMINI_KEY", "prefixed-key-123456")
	t.Setenv("GEMINI_API_KEY", "plain-key-123456")

	cfg := &Config{LLM: LLMConfig{GeminiKey: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.LLM.GeminiKey != "prefixed-key-123456" {
		t.Errorf("GeminiKey: got %q", cfg.LLM.GeminiKey)
	}
}

func TestOverrideFromEnvPlainFallback(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "plain-key-123456")

	cfg := &Config{}
	overrideFromEnv(cfg)
	if cfg.LLM.GeminiKey != "plain-key-123456" {
		t.Errorf("GeminiKey: got %q", cfg.LLM.GeminiKey)
	}

	// A configured key is not replaced by the unprefixed variable.
	cfg = &Config{LLM: LLMConfig{GeminiKey: "from-config"}}
	overrideFromEnv(cfg)
	if cfg.LLM.GeminiKey != "from-config" {
		t.Errorf("GeminiKey should stay 'from-config', got %q", cfg.LLM.GeminiKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{LLM: LLMConfig{GeminiKey: "from-config"}}
	overrideFromEnv(cfg)
	if cfg.LLM.GeminiKey != "from-config" {
		t.Errorf("GeminiKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.GeminiKey)
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"AIzaSyabcdef1234567890xyz", "AIz...xyz"},
	}
	for _, tc := range tests {
		if got := maskKey(tc.input); got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysEmpty(t *testing.T) {
	clearKeyEnv(t)

	statuses := CheckAPIKeys(&Config{})
	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	s := statuses[0]
	if s.IsSet || s.Source != KeySourceNone || s.Masked != "" {
		t.Errorf("unexpected status: %+v", s)
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearKeyEnv(t)

	statuses := CheckAPIKeys(&Config{LLM: LLMConfig{GeminiKey: "AIza-very-long-key-value"}})
	s := statuses[0]
	if !s.IsSet {
		t.Error("Gemini key should be set")
	}
	if s.Source != KeySourceConfig {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
	}
	if s.Masked != "AIz...lue" {
		t.Errorf("Masked: got %q, want %q", s.Masked, "AIz...lue")
	}
}

func TestCheckKeySourceDetection(t *testing.T) {
	t.Setenv("TEST_VAR_A", "")
	t.Setenv("TEST_VAR_B", "env-value-long-enough")

	s := checkKey("Test", "env-value-long-enough", "TEST_VAR_A", "TEST_VAR_B")
	if s.Source != KeySourceEnv {
		t.Errorf("env value: got source %q, want %q", s.Source, KeySourceEnv)
	}

	s = checkKey("Test", "some-other-value", "TEST_VAR_A", "TEST_VAR_B")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
