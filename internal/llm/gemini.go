package llm

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

var geminiDescriptor = envelopeDescriptor{
	name:            "gemini",
	baseURL:         "https://generativelanguage.googleapis.com",
	endpoint:        "/v1beta/models/{model}:generateContent",
	defaultModel:    "gemini-1.5-pro",
	requireKey:      true,
	auth:            authScheme{header: "x-goog-api-key"},
	jsonInstruction: true,
	stripFences:     true,
	build: func(cfg Config, prompt string, _ Format) any {
		return geminiRequest{
			Contents: []geminiContent{
				{Parts: []geminiPart{{Text: SystemPrompt + "\n\n" + prompt}}},
			},
			GenerationConfig: geminiGenerationConfig{
				Temperature:     cfg.Temperature,
				MaxOutputTokens: cfg.MaxTokens,
			},
		}
	},
	responsePath: []any{"candidates", 0, "content", "parts", 0, "text"},
}

// NewGeminiProvider creates a provider for the Gemini generateContent API
func NewGeminiProvider(config Config) (*EnvelopeProvider, error) {
	return newEnvelopeProvider(geminiDescriptor, config)
}
