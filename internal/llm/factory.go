package llm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/subnet-miner/internal/model"
)

// ErrNoProvider means the selected provider has no usable credentials.
// Callers treat it as "LLM disabled" rather than a fatal error.
var ErrNoProvider = errors.New("no LLM provider configured")

// SupportedProviders lists the names NewProvider accepts
var SupportedProviders = []string{"openai", "anthropic", "groq", "gemini", "openrouter", "chutes", "ollama"}

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	switch provider {
	case "openai", "groq", "openrouter", "chutes":
		return NewChatProvider(provider, config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - LLM disabled
		return nil, ErrNoProvider

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: %s)", config.Provider, strings.Join(SupportedProviders, ", "))
	}
}

// ConfigFromAgentConfig reads provider settings from the flattened agent config.
// name overrides the configured llm_provider when non-empty.
func ConfigFromAgentConfig(ac model.AgentConfig, name string, logger *slog.Logger) Config {
	if name == "" {
		name = ac.String("llm_provider", "openai")
	}
	name = strings.ToLower(name)
	if name == "claude" {
		name = "anthropic"
	}
	if name == "google" {
		name = "gemini"
	}

	def := DefaultConfig()
	cfg := Config{
		Provider:    name,
		Model:       ac.String(name+"_model", ""),
		APIKey:      ac.String(name+"_api_key", ""),
		BaseURL:     ac.String(name+"_base_url", ""),
		Timeout:     ac.Duration("llm_timeout", def.Timeout),
		MaxTokens:   ac.Int("max_tokens", def.MaxTokens),
		Temperature: ac.Float("temperature", def.Temperature),
		HTTPProxy:   ac.String("http_proxy", ""),
		HTTPSProxy:  ac.String("https_proxy", ""),
		NoProxy:     ac.String("no_proxy", ""),
		Logger:      logger,
	}

	if name == "chutes" {
		cfg.APIKey = ac.String("chutes_cpk_api_key", "")
		cfg.Slug = ac.String("chutes_slug", "")
	}

	return cfg
}
