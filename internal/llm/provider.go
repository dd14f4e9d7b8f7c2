package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Provider defines the interface for LLM backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// ModelName returns "provider/model"
	ModelName() string

	// Call sends a prompt and returns text or a parsed JSON object.
	// Failures are reported through Result.Err, never as a Go error or panic.
	Call(ctx context.Context, prompt string, format Format) Result
}

// Format selects plain text or structured JSON output
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// Result is the outcome of a provider call
type Result struct {
	// Text is the raw completion
	Text string

	// Data is the parsed object when FormatJSON was requested
	Data map[string]any

	// Err describes the failure, empty on success
	Err string
}

// Failed reports whether the call produced an error marker
func (r Result) Failed() bool {
	return r.Err != ""
}

func errorResult(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// SystemPrompt frames every verification request
const SystemPrompt = "You are a financial prediction verification expert. Analyze statements accurately and provide structured responses in the requested JSON format."

// JSONInstruction is appended to prompts for backends without a native JSON mode
const JSONInstruction = "\n\nPlease respond with valid JSON format only."

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "groq", "gemini", "openrouter", "chutes", "ollama"
	Provider string

	// Model name (provider-specific, empty uses the provider default)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL overrides the provider endpoint (tests, self-hosted gateways)
	BaseURL string

	// Slug is the chutes deployment name
	Slug string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		MaxTokens:   1000,
		Temperature: 0.1, // verdicts should be repeatable
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.Temperature < 0 {
		c.Temperature = def.Temperature
	}
	return c
}
