package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "RESEARCH"

type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Chat     LLMConfig      `yaml:"chat"`
	Document DocumentConfig `yaml:"document"`
	Search   SearchConfig   `yaml:"search"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// LLMConfig configures the chat model used for web research.
// Provider is "ollama" or "openai" (any OpenAI-compatible endpoint).
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	Key         string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type DocumentConfig struct {
	Key          string `yaml:"api_key"`
	Model        string `yaml:"model"`
	ExcerptChars int    `yaml:"excerpt_chars"`
}

type SearchConfig struct {
	MaxResults        int           `yaml:"max_results"`
	Region            string        `yaml:"region"`
	SafeSearch        string        `yaml:"safesearch"`
	Backend           string        `yaml:"backend"`
	UserAgent         string        `yaml:"user_agent"`
	Workers           int           `yaml:"workers"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	Retry             RetryConfig   `yaml:"retry"`
}

// RetryConfig mirrors search.RetryPolicy so it can be tuned from YAML
type RetryConfig struct {
	MaxAttempts      int           `yaml:"max_attempts"`
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`
	JitterMin        time.Duration `yaml:"jitter_min"`
	JitterMax        time.Duration `yaml:"jitter_max"`
	ResultJitterMin  time.Duration `yaml:"result_jitter_min"`
	ResultJitterMax  time.Duration `yaml:"result_jitter_max"`
}

// Default returns the configuration used when no file or environment overrides are present
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxUploadBytes: 32 << 20,
		},
		Chat: LLMConfig{
			Provider:    "ollama",
			BaseURL:     "http://localhost:11434",
			Model:       "llama3",
			Temperature: 0.7,
		},
		Document: DocumentConfig{
			Model:        "gemini-1.5-flash",
			ExcerptChars: 500,
		},
		Search: SearchConfig{
			MaxResults:        3,
			Region:            "wt-wt",
			SafeSearch:        "moderate",
			Backend:           "lite",
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			Workers:           4,
			RequestsPerSecond: 1,
			Timeout:           15 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:      2,
				RateLimitBackoff: 30 * time.Second,
				JitterMin:        1 * time.Second,
				JitterMax:        3 * time.Second,
				ResultJitterMin:  500 * time.Millisecond,
				ResultJitterMax:  1 * time.Second,
			},
		},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults, then applies
// RESEARCH_* environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg, newEnv()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("document.api_key", envPrefix+"_DOCUMENT_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	return v
}

func applyEnv(cfg *Config, v *viper.Viper) error {
	setString(v, "log_level", &cfg.LogLevel)
	setString(v, "server.addr", &cfg.Server.Addr)
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = strings.Split(v.GetString("server.allowed_origins"), ",")
	}

	setString(v, "chat.provider", &cfg.Chat.Provider)
	setString(v, "chat.base_url", &cfg.Chat.BaseURL)
	setString(v, "chat.api_key", &cfg.Chat.Key)
	setString(v, "chat.model", &cfg.Chat.Model)
	if v.IsSet("chat.timeout") {
		d, err := time.ParseDuration(v.GetString("chat.timeout"))
		if err != nil {
			return fmt.Errorf("invalid %s_CHAT_TIMEOUT: %w", envPrefix, err)
		}
		cfg.Chat.Timeout = d
	}

	setString(v, "document.api_key", &cfg.Document.Key)
	setString(v, "document.model", &cfg.Document.Model)

	setString(v, "search.user_agent", &cfg.Search.UserAgent)
	setString(v, "search.region", &cfg.Search.Region)
	if v.IsSet("search.max_results") {
		cfg.Search.MaxResults = v.GetInt("search.max_results")
	}
	if v.IsSet("search.workers") {
		cfg.Search.Workers = v.GetInt("search.workers")
	}
	return nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}
