// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (FINSIGHT_* prefix, TAVILY_API_KEY, BACKEND_API_KEY)
//  2. Config file (~/.finsight/config.yaml, or ./config.yaml)
//  3. Default values
//
// Sensitive values (API keys) are never logged and are masked in MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidBackendURL indicates the model backend base URL is empty.
	ErrInvalidBackendURL = errors.New("invalid backend base URL")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidChunking indicates chunk size/overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunk size or overlap")

	// ErrInvalidMaxSteps indicates the agent step budget is out of range.
	ErrInvalidMaxSteps = errors.New("invalid max steps")
)

// Defaults for the retrieval pipeline. Chunk window and overlap were tuned
// empirically against the bundled investment corpus.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultMaxSteps     = 5
	DefaultHTTPTimeout  = 10 * time.Second
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding new
// secrets, update MarshalJSON.
type Config struct {
	// Model backend (any OpenAI-compatible completion server).
	BackendBaseURL string  `mapstructure:"backend_base_url" json:"backend_base_url"`
	BackendAPIKey  string  `mapstructure:"backend_api_key" json:"backend_api_key"` // SENSITIVE
	ModelName      string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel  string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature    float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Cross-encoder reranker endpoint (TEI-compatible /rerank).
	RerankerURL string `mapstructure:"reranker_url" json:"reranker_url"`

	// Knowledge base locations.
	DataDir  string `mapstructure:"data_dir" json:"data_dir"`
	CacheDir string `mapstructure:"cache_dir" json:"cache_dir"`

	// Retrieval pipeline tuning.
	ChunkSize    int `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Agent loop.
	MaxSteps int `mapstructure:"max_steps" json:"max_steps"`

	// External tool APIs.
	TavilyAPIKey string        `mapstructure:"tavily_api_key" json:"tavily_api_key"` // SENSITIVE
	HTTPTimeout  time.Duration `mapstructure:"http_timeout" json:"http_timeout"`

	// Remote symbol mapping. When set, the embedded ticker mapping is
	// refreshed from this URL at startup and by `symbols refresh`.
	SymbolsURL string `mapstructure:"symbols_url" json:"symbols_url"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".finsight")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("backend_base_url", "http://localhost:8080/v1")
	v.SetDefault("model_name", "qwen3-4b-instruct")
	v.SetDefault("embedder_model", "bge-base-en-v1.5")
	v.SetDefault("temperature", 0.1)
	v.SetDefault("max_tokens", 512)

	v.SetDefault("reranker_url", "http://localhost:8081/rerank")

	v.SetDefault("data_dir", "./data_investment")
	v.SetDefault("cache_dir", filepath.Join(configDir, "cache"))

	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("max_steps", DefaultMaxSteps)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("symbols_url", "")
}

// bindEnvVariables binds environment variables. Secrets are bound to
// unprefixed names for compatibility with common deployment setups.
func bindEnvVariables(v *viper.Viper) {
	v.SetEnvPrefix("FINSIGHT")
	v.AutomaticEnv()

	// Secrets keep their conventional names.
	_ = v.BindEnv("tavily_api_key", "TAVILY_API_KEY")
	_ = v.BindEnv("backend_api_key", "BACKEND_API_KEY", "OPENAI_API_KEY")
}

// Validate checks the configuration for consistency. Fail-fast at startup.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.BackendBaseURL == "" {
		return fmt.Errorf("%w: backend_base_url must not be empty", ErrInvalidBackendURL)
	}
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name must not be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (expected 0-2)", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 32768 {
		return fmt.Errorf("%w: %d (expected 1-32768)", ErrInvalidMaxTokens, c.MaxTokens)
	}
	if c.ChunkSize < 1 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, c.ChunkSize, c.ChunkOverlap)
	}
	if c.MaxSteps < 1 || c.MaxSteps > 20 {
		return fmt.Errorf("%w: %d (expected 1-20)", ErrInvalidMaxSteps, c.MaxSteps)
	}
	return nil
}

// MarshalJSON masks sensitive fields so configs can be logged safely.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(*c)
	if masked.BackendAPIKey != "" {
		masked.BackendAPIKey = "***"
	}
	if masked.TavilyAPIKey != "" {
		masked.TavilyAPIKey = "***"
	}
	return json.Marshal(masked)
}
