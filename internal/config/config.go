// Package config handles configuration loading for stockchat.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Data    DataConfig    `mapstructure:"data"    yaml:"data"    json:"data"`
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"     json:"llm"`
	Router  RouterConfig  `mapstructure:"router"  yaml:"router"  json:"router"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"     json:"api"`
	Client  ClientConfig  `mapstructure:"client"  yaml:"client"  json:"client"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// DataConfig locates the CSV datasets.
type DataConfig struct {
	Dir           string `mapstructure:"dir"            yaml:"dir"            json:"dir"`
	InfoFile      string `mapstructure:"info_file"      yaml:"info_file"      json:"info_file"`
	BarsFile      string `mapstructure:"bars_file"      yaml:"bars_file"      json:"bars_file"`
	ProcessedFile string `mapstructure:"processed_file" yaml:"processed_file" json:"processed_file"`
	CacheTTL      int    `mapstructure:"cache_ttl"      yaml:"cache_ttl"      json:"cache_ttl"` // seconds, 0 = reload on every read
}

// LLMConfig holds completion service configuration.
type LLMConfig struct {
	GeminiKey   string   `mapstructure:"gemini_key"  yaml:"gemini_key"  json:"-"`
	BaseURL     string   `mapstructure:"base_url"    yaml:"base_url"    json:"base_url"` // empty = Google default
	Model       string   `mapstructure:"model"       yaml:"model"       json:"model"`
	Temperature *float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"` // nil = provider default
	MaxTokens   int      `mapstructure:"max_tokens"  yaml:"max_tokens"  json:"max_tokens"`
	TimeoutSec  int      `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// KeywordConfig is one entry of a router keyword table.
type KeywordConfig struct {
	Phrase string `mapstructure:"phrase" yaml:"phrase" json:"phrase"`
	Match  string `mapstructure:"match"  yaml:"match"  json:"match"` // "token" or "substring"
}

// RouterConfig holds the chat router's keyword tables and attachment settings.
type RouterConfig struct {
	Symbols    []KeywordConfig `mapstructure:"symbols"     yaml:"symbols"     json:"symbols"`
	Regions    []KeywordConfig `mapstructure:"regions"     yaml:"regions"     json:"regions"`
	BarLimit   int             `mapstructure:"bar_limit"   yaml:"bar_limit"   json:"bar_limit"`
	LatestBars bool            `mapstructure:"latest_bars" yaml:"latest_bars" json:"latest_bars"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// ClientConfig holds settings for CLI commands that talk to a running server.
type ClientConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"    json:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Addr returns the listen address for the API server.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stockchat/config.yaml (home directory)
//  3. /etc/stockchat/config.yaml (system)
//
// A .env file in the working directory is loaded first; variables already
// present in the environment win. Environment variables override config file
// values. Format: STOCKCHAT_<SECTION>_<KEY>, e.g., STOCKCHAT_API_PORT.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockchat"))
	v.AddConfigPath("/etc/stockchat")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STOCKCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.info_file", "indexInfo.csv")
	v.SetDefault("data.bars_file", "indexData.csv")
	v.SetDefault("data.processed_file", "indexProcessed.csv")
	v.SetDefault("data.cache_ttl", 300) // 5 minutes

	// LLM defaults
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout_sec", 30)

	// Router defaults
	v.SetDefault("router.symbols", keywordDefaults("token", DefaultSymbols...))
	v.SetDefault("router.regions", keywordDefaults("substring", DefaultRegions...))
	v.SetDefault("router.bar_limit", 5)
	v.SetDefault("router.latest_bars", false)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Client defaults
	v.SetDefault("client.base_url", "http://localhost:8000")
	v.SetDefault("client.timeout_sec", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// DefaultSymbols are the index symbols the router recognizes out of the box.
var DefaultSymbols = []string{"nya", "ixic", "hsi", "n225", "gspc"}

// DefaultRegions are the region phrases the router recognizes out of the box.
var DefaultRegions = []string{"united states", "china", "japan", "europe", "germany", "hong kong"}

func keywordDefaults(match string, phrases ...string) []map[string]string {
	out := make([]map[string]string, len(phrases))
	for i, p := range phrases {
		out[i] = map[string]string{"phrase": p, "match": match}
	}
	return out
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// GEMINI_API_KEY is honored when the prefixed variable is not set.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("STOCKCHAT_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" && cfg.LLM.GeminiKey == "" {
		cfg.LLM.GeminiKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
