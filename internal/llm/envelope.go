package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/subnet-miner/internal/util"
)

// authScheme describes how an envelope backend receives its credential
type authScheme struct {
	header string // header name, empty for none
	prefix string // e.g. "Bearer "
}

// envelopeDescriptor describes a backend with its own JSON request/response envelope
type envelopeDescriptor struct {
	name            string
	baseURL         string
	endpoint        string // path, "{model}" is substituted
	defaultModel    string
	requireKey      bool
	requireModel    bool
	auth            authScheme
	headers         map[string]string
	jsonInstruction bool
	stripFences     bool

	// build returns the request body
	build func(cfg Config, prompt string, format Format) any

	// responsePath locates the completion text in the decoded response
	responsePath []any
}

// EnvelopeProvider implements Provider for non chat-completions backends
type EnvelopeProvider struct {
	desc       envelopeDescriptor
	baseURL    string
	httpClient *http.Client
	config     Config
}

func newEnvelopeProvider(desc envelopeDescriptor, config Config) (*EnvelopeProvider, error) {
	if desc.requireKey && config.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is required", ErrNoProvider, desc.name)
	}

	config = config.withDefaults()
	if config.Model == "" {
		config.Model = desc.defaultModel
	}
	if desc.requireModel && config.Model == "" {
		return nil, fmt.Errorf("%s model must be specified", desc.name)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = desc.baseURL
	}

	return &EnvelopeProvider{
		desc:    desc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *EnvelopeProvider) Name() string {
	return p.desc.name
}

// ModelName returns "provider/model"
func (p *EnvelopeProvider) ModelName() string {
	return p.desc.name + "/" + p.config.Model
}

// Call sends the prompt in the backend's own envelope
func (p *EnvelopeProvider) Call(ctx context.Context, prompt string, format Format) Result {
	log := p.config.logger()

	if format == FormatJSON && p.desc.jsonInstruction {
		prompt += JSONInstruction
	}

	log.Debug("llm call", "provider", p.desc.name, "model", p.config.Model, "format", format.String(), "prompt_length", len(prompt))

	body, err := p.makeRequest(ctx, p.desc.build(p.config, prompt, format))
	if err != nil {
		log.Warn("llm call failed", "provider", p.desc.name, "error", err)
		return errorResult("%s %v", p.desc.name, err)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return errorResult("invalid JSON response from %s", p.desc.name)
	}

	text, ok := lookupPath(decoded, p.desc.responsePath)
	if !ok {
		return errorResult("no content in %s response", p.desc.name)
	}

	log.Debug("llm response", "provider", p.desc.name, "content_length", len(text))

	return finish(p.desc.name, text, format, p.desc.stripFences)
}

// makeRequest makes an HTTP request to the backend
func (p *EnvelopeProvider) makeRequest(ctx context.Context, apiReq any) ([]byte, error) {
	// Serialize request
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// Create HTTP request
	endpoint := p.baseURL + strings.ReplaceAll(p.desc.endpoint, "{model}", p.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Set headers
	httpReq.Header.Set("Content-Type", "application/json")
	if p.desc.auth.header != "" {
		httpReq.Header.Set(p.desc.auth.header, p.desc.auth.prefix+p.config.APIKey)
	}
	for k, v := range p.desc.headers {
		httpReq.Header.Set(k, v)
	}

	// Make request
	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		// *url.Error repeats the request URL, which may carry a credential
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Read response body
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Check for errors
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErrorMessage(respBody))
	}

	return respBody, nil
}

// apiErrorMessage extracts the message from {"error": {"message": ...}} or {"error": "..."}
func apiErrorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var nested struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			if nested.Type != "" {
				return nested.Type + " - " + nested.Message
			}
			return nested.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			return plain
		}
	}
	return strings.TrimSpace(string(body))
}

// lookupPath walks maps by string key and slices by int index
func lookupPath(v any, path []any) (string, bool) {
	cur := v
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return "", false
			}
			cur, ok = m[key]
			if !ok {
				return "", false
			}
		case int:
			list, ok := cur.([]any)
			if !ok || key < 0 || key >= len(list) {
				return "", false
			}
			cur = list[key]
		default:
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}
