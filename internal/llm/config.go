package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects and configures the provider behind AI quiz generation.
type Config struct {
	// Provider is "gemini", "openai", "anthropic", "openrouter" or "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one generation including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures RetryProvider.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// modelAliases are the short names accepted in CLOUDVERSE_*_MODEL.
var modelAliases = map[string]string{
	"gemini-flash":  "gemini-2.5-flash",
	"gemini-lite":   "gemini-2.5-flash-lite",
	"gemini-pro":    "gemini-2.5-pro",
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"claude-sonnet": "claude-sonnet-4-20250514",
}

// resolveModel expands an alias. Anything else is taken as a model ID.
func resolveModel(name string) string {
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}

func DefaultConfig() Config {
	return Config{
		Provider:   "gemini",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// envBindings lists the CLOUDVERSE_* variables read by ConfigFromEnv.
func (c *Config) envBindings() map[string]*string {
	return map[string]*string{
		"CLOUDVERSE_LLM_PROVIDER":       &c.Provider,
		"CLOUDVERSE_GEMINI_API_KEY":     &c.Gemini.APIKey,
		"CLOUDVERSE_GEMINI_MODEL":       &c.Gemini.Model,
		"CLOUDVERSE_GEMINI_BASE_URL":    &c.Gemini.BaseURL,
		"CLOUDVERSE_OPENAI_API_KEY":     &c.OpenAI.APIKey,
		"CLOUDVERSE_OPENAI_MODEL":       &c.OpenAI.Model,
		"CLOUDVERSE_OPENAI_BASE_URL":    &c.OpenAI.BaseURL,
		"CLOUDVERSE_ANTHROPIC_API_KEY":  &c.Anthropic.APIKey,
		"CLOUDVERSE_ANTHROPIC_MODEL":    &c.Anthropic.Model,
		"CLOUDVERSE_OPENROUTER_API_KEY": &c.OpenRouter.APIKey,
		"CLOUDVERSE_OPENROUTER_MODEL":   &c.OpenRouter.Model,
	}
}

// ConfigFromEnv overlays set CLOUDVERSE_* variables on DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	for name, dst := range cfg.envBindings() {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	return cfg
}

// vendorKeys are probed by DiscoverConfig in order. Gemini comes first.
var vendorKeys = []struct {
	env      string
	provider string
	key      func(*Config) *string
}{
	{"GEMINI_API_KEY", "gemini", func(c *Config) *string { return &c.Gemini.APIKey }},
	{"OPENAI_API_KEY", "openai", func(c *Config) *string { return &c.OpenAI.APIKey }},
	{"ANTHROPIC_API_KEY", "anthropic", func(c *Config) *string { return &c.Anthropic.APIKey }},
	{"OPENROUTER_API_KEY", "openrouter", func(c *Config) *string { return &c.OpenRouter.APIKey }},
}

// DiscoverConfig builds a Config for the first vendor whose standard API key
// variable is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	for _, vk := range vendorKeys {
		if k := os.Getenv(vk.env); k != "" {
			cfg.Provider = vk.provider
			*vk.key(&cfg) = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Resolve picks the provider configuration for the app. An explicit
// CLOUDVERSE_LLM_PROVIDER wins; otherwise the standard vendor key variables
// are probed. ok is false when no provider is configured at all, in which case
// AI quiz generation is disabled and the rest of the app is unaffected.
func Resolve() (cfg Config, ok bool) {
	if os.Getenv("CLOUDVERSE_LLM_PROVIDER") != "" {
		return ConfigFromEnv(), true
	}
	return DiscoverConfig()
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case "mock":
		return nil
	case "anthropic":
		key = c.Anthropic.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "openrouter":
		key = c.OpenRouter.APIKey
	default:
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("CLOUDVERSE_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}

