package llm

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

var ollamaDescriptor = envelopeDescriptor{
	name:         "ollama",
	baseURL:      "http://localhost:11434",
	endpoint:     "/api/generate",
	requireModel: true,
	stripFences:  true,
	build: func(cfg Config, prompt string, format Format) any {
		req := ollamaRequest{
			Model:  cfg.Model,
			Prompt: prompt,
			Stream: false, // Get complete response at once
			System: SystemPrompt,
			Options: ollamaOptions{
				Temperature: cfg.Temperature,
				NumPredict:  cfg.MaxTokens,
			},
		}
		if format == FormatJSON {
			req.Format = "json"
		}
		return req
	},
	responsePath: []any{"response"},
}

// NewOllamaProvider creates a provider for a local Ollama server
func NewOllamaProvider(config Config) (*EnvelopeProvider, error) {
	return newEnvelopeProvider(ollamaDescriptor, config)
}
