package llm

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var anthropicDescriptor = envelopeDescriptor{
	name:            "anthropic",
	baseURL:         "https://api.anthropic.com",
	endpoint:        "/v1/messages",
	defaultModel:    "claude-3-sonnet-20240229",
	requireKey:      true,
	auth:            authScheme{header: "x-api-key"},
	headers:         map[string]string{"anthropic-version": "2023-06-01"},
	jsonInstruction: true,
	build: func(cfg Config, prompt string, _ Format) any {
		return anthropicRequest{
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			System:    SystemPrompt,
			Messages: []anthropicMessage{
				{Role: "user", Content: prompt},
			},
			Temperature: cfg.Temperature,
		}
	},
	responsePath: []any{"content", 0, "text"},
}

// NewAnthropicProvider creates a provider for the Anthropic Messages API
func NewAnthropicProvider(config Config) (*EnvelopeProvider, error) {
	return newEnvelopeProvider(anthropicDescriptor, config)
}
