// Package config loads service settings from defaults, an optional YAML
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgallion1/lexgest/internal/legal"
)

type Config struct {
	Port      string `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Pathstore hand-off. Disabled when URL is empty.
	PathstoreURL    string `mapstructure:"pathstore_url"`
	PathstoreAPIKey string `mapstructure:"pathstore_api_key"`

	// Bearer token required on /api routes. Empty disables auth.
	APIKey string `mapstructure:"lexgest_api_key"`

	// Primary model tier.
	AnthropicAPIKey  string `mapstructure:"anthropic_api_key"`
	AnthropicModel   string `mapstructure:"anthropic_model"`
	AnthropicBaseURL string `mapstructure:"anthropic_base_url"`

	// Fallback tier: OpenAI when a key is set, else a cheaper Anthropic model.
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	FallbackModel string `mapstructure:"fallback_model"`

	// Batch cache. Disabled when URL is empty.
	RedisURL string        `mapstructure:"redis_url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Worker pool
	WorkerCount        int `mapstructure:"worker_count"`
	MaxQueueSize       int `mapstructure:"max_queue_size"`
	MaxConcurrentStore int `mapstructure:"max_concurrent_store"`

	// Pipeline
	MergeStrategy     string        `mapstructure:"merge_strategy"`
	FallbackThreshold int           `mapstructure:"fallback_threshold"`
	WindowSize        int           `mapstructure:"window_size"`
	SkimParagraphs    int           `mapstructure:"skim_paragraphs"`
	BatchTimeout      time.Duration `mapstructure:"batch_timeout"`
	RunTimeout        time.Duration `mapstructure:"run_timeout"`
	ModelTimeout      time.Duration `mapstructure:"model_timeout"`

	// Per-run option defaults, overridable per request.
	Length       string `mapstructure:"summary_length"`
	Complexity   string `mapstructure:"complexity"`
	Tone         string `mapstructure:"tone"`
	Style        string `mapstructure:"style"`
	Jurisdiction string `mapstructure:"jurisdiction"`
	TokenCeiling int    `mapstructure:"token_ceiling"`
	Concurrency  int    `mapstructure:"concurrency"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// Job and session state
	JobTTL     time.Duration `mapstructure:"job_ttl"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	// PDF
	PDFFallbackPdftotext bool `mapstructure:"pdf_fallback_pdftotext"`
}

var defaults = map[string]any{
	"port":       "8090",
	"log_level":  "info",
	"log_format": "json",

	"pathstore_url":     "",
	"pathstore_api_key": "",
	"lexgest_api_key":   "",

	"anthropic_api_key":  "",
	"anthropic_model":    "claude-sonnet-4-5-20250929",
	"anthropic_base_url": "",
	"openai_api_key":     "",
	"openai_model":       "gpt-4o-mini",
	"openai_base_url":    "",
	"fallback_model":     "claude-haiku-4-5-20251001",

	"redis_url": "",
	"cache_ttl": 24 * time.Hour,

	"worker_count":         4,
	"max_queue_size":       100,
	"max_concurrent_store": 10,

	"merge_strategy":     "hybrid",
	"fallback_threshold": 10,
	"window_size":        4,
	"skim_paragraphs":    8,
	"batch_timeout":      3 * time.Minute,
	"run_timeout":        30 * time.Minute,
	"model_timeout":      2 * time.Minute,

	"summary_length": string(legal.LengthMedium),
	"complexity":     string(legal.ComplexityBalanced),
	"tone":           string(legal.ToneProfessional),
	"style":          string(legal.StyleDetailed),
	"jurisdiction":   "",
	"token_ceiling":  legal.DefaultTokenCeiling,
	"concurrency":    legal.DefaultConcurrency,

	"max_upload_bytes": int64(50 << 20),

	"job_ttl":     time.Hour,
	"session_ttl": 24 * time.Hour,

	"pdf_fallback_pdftotext": true,
}

// New returns a viper instance with every key defaulted and bound to its
// upper-case environment variable (PORT, ANTHROPIC_API_KEY, ...).
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Load reads path when non-empty, then environment overrides.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes v and clamps nonsensical values back to defaults.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaults["worker_count"].(int)
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaults["max_queue_size"].(int)
	}
	if cfg.MaxConcurrentStore <= 0 {
		cfg.MaxConcurrentStore = defaults["max_concurrent_store"].(int)
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaults["window_size"].(int)
	}
	if cfg.SkimParagraphs < 0 {
		cfg.SkimParagraphs = 0
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaults["max_upload_bytes"].(int64)
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return cfg, nil
}

// Options returns the configured per-run defaults, normalized.
func (c Config) Options() legal.Options {
	return legal.Options{
		Length:       legal.Length(c.Length),
		Complexity:   legal.Complexity(c.Complexity),
		Tone:         legal.Tone(c.Tone),
		Style:        legal.Style(c.Style),
		Jurisdiction: c.Jurisdiction,
		TokenCeiling: c.TokenCeiling,
		Concurrency:  c.Concurrency,
	}.Normalize()
}

// Validate checks settings every command needs.
func (c Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return errors.New("ANTHROPIC_API_KEY is required")
	}
	switch c.MergeStrategy {
	case "deterministic", "model", "hybrid":
	default:
		return fmt.Errorf("invalid merge_strategy %q", c.MergeStrategy)
	}
	if c.BatchTimeout <= 0 {
		return errors.New("batch_timeout must be positive")
	}
	if err := c.Options().Validate(); err != nil {
		return fmt.Errorf("default options: %w", err)
	}
	return nil
}

// ValidateServer adds the checks for the HTTP service.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return errors.New("LEXGEST_API_KEY is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return errors.New("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}
