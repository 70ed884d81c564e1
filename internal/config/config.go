// Package config loads briefcraft configuration from YAML with
// environment-variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"briefcraft/internal/generation"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the generation backend.
type LLMConfig struct {
	// Backend selects the implementation: "rest" or "genai".
	Backend string `yaml:"backend"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`

	Models generation.Settings `yaml:"models"`
}

// GenerationConfig tunes retry behavior.
type GenerationConfig struct {
	MaxAttempts  int    `yaml:"max_attempts"`
	RetryBackoff string `yaml:"retry_backoff"`
}

// WriterConfig tunes article writing.
type WriterConfig struct {
	GlobalWordTarget   int  `yaml:"global_word_target"`
	Strict             bool `yaml:"strict"`
	ContextWindowWords int  `yaml:"context_window_words"`
	LookaheadHeadings  int  `yaml:"lookahead_headings"`
}

// SerpConfig tunes competitor fetching.
type SerpConfig struct {
	// Fetcher selects the on-page fetcher: "http" or "rod".
	Fetcher     string `yaml:"fetcher"`
	Timeout     string `yaml:"timeout"`
	Concurrency int    `yaml:"concurrency"`
	Headless    bool   `yaml:"headless"`
}

// StoreConfig locates the brief database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// Config is the root configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Writer     WriterConfig     `yaml:"writer"`
	Serp       SerpConfig       `yaml:"serp"`
	Store      StoreConfig      `yaml:"store"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Backend: "rest",
			Timeout: "10m",
			Models:  generation.DefaultSettings(),
		},
		Generation: GenerationConfig{
			MaxAttempts:  3,
			RetryBackoff: "2s",
		},
		Writer: WriterConfig{
			ContextWindowWords: 600,
			LookaheadHeadings:  3,
		},
		Serp: SerpConfig{
			Fetcher:     "http",
			Timeout:     "30s",
			Concurrency: 4,
			Headless:    true,
		},
		Store: StoreConfig{
			DatabasePath: ".briefcraft/briefs.db",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env only.
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// applyEnvOverrides lets credentials come from the environment so they
// stay out of config files.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if backend := os.Getenv("BRIEFCRAFT_BACKEND"); backend != "" {
		cfg.LLM.Backend = backend
	}
	if db := os.Getenv("BRIEFCRAFT_DB"); db != "" {
		cfg.Store.DatabasePath = db
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.LLM.Backend {
	case "rest", "genai":
	default:
		return fmt.Errorf("unknown llm backend %q", c.LLM.Backend)
	}
	switch c.Serp.Fetcher {
	case "http", "rod":
	default:
		return fmt.Errorf("unknown serp fetcher %q", c.Serp.Fetcher)
	}
	if c.Generation.MaxAttempts < 1 {
		return fmt.Errorf("generation.max_attempts must be at least 1")
	}
	return nil
}

// LLMTimeout parses the backend timeout.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 10*time.Minute)
}

// RetryBackoff parses the retry delay.
func (c *Config) RetryBackoff() time.Duration {
	return parseDuration(c.Generation.RetryBackoff, 2*time.Second)
}

// SerpTimeout parses the on-page fetch timeout.
func (c *Config) SerpTimeout() time.Duration {
	return parseDuration(c.Serp.Timeout, 30*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
