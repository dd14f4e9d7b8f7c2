package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/subnet-miner/internal/util"
)

// chatDescriptor describes one backend speaking the chat-completions protocol
type chatDescriptor struct {
	name         string
	baseURL      string
	defaultModel string
	nativeJSON   bool // supports response_format json_object
	stripFences  bool
	minTimeout   time.Duration
	headers      map[string]string
}

var chatDescriptors = map[string]chatDescriptor{
	"openai": {
		name:         "openai",
		baseURL:      "https://api.openai.com/v1",
		defaultModel: openai.GPT4o,
		nativeJSON:   true,
	},
	"groq": {
		name:         "groq",
		baseURL:      "https://api.groq.com/openai/v1",
		defaultModel: "llama3-70b-8192",
	},
	"openrouter": {
		name:         "openrouter",
		baseURL:      "https://openrouter.ai/api/v1",
		defaultModel: "mistralai/mistral-7b-instruct",
		headers: map[string]string{
			"HTTP-Referer": "https://github.com/ppiankov/subnet-miner",
			"X-Title":      "Subnet 90 Miner",
		},
	},
	"chutes": {
		name:         "chutes",
		defaultModel: "unsloth/Llama-3.2-3B-Instruct",
		stripFences:  true,
		minTimeout:   60 * time.Second, // decentralized inference is slow
	},
}

// ChatProvider implements Provider for chat-completions backends
type ChatProvider struct {
	client *openai.Client
	desc   chatDescriptor
	config Config
}

// NewChatProvider creates a provider for one of the chat-completions backends
func NewChatProvider(name string, config Config) (*ChatProvider, error) {
	desc, ok := chatDescriptors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown chat provider: %s", name)
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is required", ErrNoProvider, desc.name)
	}

	config = config.withDefaults()
	if config.Model == "" {
		config.Model = desc.defaultModel
	}
	if config.Timeout < desc.minTimeout {
		config.Timeout = desc.minTimeout
	}

	baseURL := desc.baseURL
	if desc.name == "chutes" {
		if config.Slug == "" && config.BaseURL == "" {
			return nil, fmt.Errorf("%w: chutes slug is required", ErrNoProvider)
		}
		baseURL = fmt.Sprintf("https://%s.chutes.ai/v1", config.Slug)
	}
	if config.BaseURL != "" {
		baseURL = strings.TrimSuffix(config.BaseURL, "/")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: config.Timeout,
		Transport: &headerTransport{
			headers: desc.headers,
			base: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
	}

	return &ChatProvider{
		client: openai.NewClientWithConfig(clientConfig),
		desc:   desc,
		config: config,
	}, nil
}

// Name returns the provider name
func (p *ChatProvider) Name() string {
	return p.desc.name
}

// ModelName returns "provider/model"
func (p *ChatProvider) ModelName() string {
	return p.desc.name + "/" + p.config.Model
}

// Call sends the prompt through the Chat Completions API
func (p *ChatProvider) Call(ctx context.Context, prompt string, format Format) Result {
	log := p.config.logger()

	chatReq := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   p.config.MaxTokens,
		Temperature: chatTemperature(p.config.Temperature),
	}

	if format == FormatJSON {
		if p.desc.nativeJSON {
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		} else {
			chatReq.Messages[1].Content = prompt + JSONInstruction
		}
	}

	log.Debug("llm call", "provider", p.desc.name, "model", p.config.Model, "format", format.String(), "prompt_length", len(prompt))

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		log.Warn("llm call failed", "provider", p.desc.name, "error", err)
		return errorResult("%s", describeChatError(p.desc.name, err))
	}

	if len(resp.Choices) == 0 {
		return errorResult("no response from %s", p.desc.name)
	}

	content := resp.Choices[0].Message.Content
	log.Debug("llm response", "provider", p.desc.name, "content_length", len(content), "tokens", resp.Usage.TotalTokens)

	return finish(p.desc.name, content, format, p.desc.stripFences)
}

// describeChatError flattens go-openai errors into "<name> API error (<status>): <message>"
func describeChatError(name string, err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s API error (%d): %s", name, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("%s API error (%d): %v", name, reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Sprintf("%s API call failed: %v", name, err)
}

// chatTemperature keeps an explicit zero on the wire; go-openai omits a
// zero temperature and the backend would fall back to its own default.
func chatTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// headerTransport adds fixed headers to every request
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
