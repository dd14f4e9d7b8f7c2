package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func chatServer(t *testing.T, content string, check func(r *http.Request, req openai.ChatCompletionRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if check != nil {
			check(r, req)
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 100},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestChatProvider_OpenAI_NativeJSON(t *testing.T) {
	server := chatServer(t, `{"resolution": "FALSE", "confidence": 70}`, func(r *http.Request, req openai.ChatCompletionRequest) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Error("Expected json_object response format")
		}
		if req.Messages[0].Content != SystemPrompt {
			t.Error("Expected system prompt as first message")
		}
		if strings.Contains(req.Messages[1].Content, JSONInstruction) {
			t.Error("Expected no JSON instruction with native JSON mode")
		}
		if req.Model != openai.GPT4o {
			t.Errorf("Expected default model %s, got %s", openai.GPT4o, req.Model)
		}
	})
	defer server.Close()

	provider, err := NewChatProvider("openai", Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	result := provider.Call(context.Background(), "reason", FormatJSON)
	if result.Failed() {
		t.Fatalf("Call failed: %s", result.Err)
	}
	if result.Data["resolution"] != "FALSE" {
		t.Errorf("Expected resolution FALSE, got %v", result.Data["resolution"])
	}
	if provider.ModelName() != "openai/gpt-4o" {
		t.Errorf("Unexpected model name %s", provider.ModelName())
	}
}

func TestChatProvider_OpenRouter_Headers(t *testing.T) {
	server := chatServer(t, "plain answer", func(r *http.Request, req openai.ChatCompletionRequest) {
		if r.Header.Get("HTTP-Referer") == "" || r.Header.Get("X-Title") == "" {
			t.Error("Expected openrouter attribution headers")
		}
		if req.ResponseFormat != nil {
			t.Error("Expected no response_format for openrouter")
		}
	})
	defer server.Close()

	provider, err := NewChatProvider("openrouter", Config{APIKey: "or-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	result := provider.Call(context.Background(), "hello", FormatText)
	if result.Failed() || result.Text != "plain answer" {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestChatProvider_Chutes_StripsFences(t *testing.T) {
	server := chatServer(t, "```json\n{\"resolution\": \"PENDING\"}\n```", func(r *http.Request, req openai.ChatCompletionRequest) {
		if !strings.HasSuffix(req.Messages[1].Content, JSONInstruction) {
			t.Error("Expected JSON instruction appended for chutes")
		}
	})
	defer server.Close()

	provider, err := NewChatProvider("chutes", Config{APIKey: "cpk", Slug: "demo", BaseURL: server.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.config.Timeout != 60*time.Second {
		t.Errorf("Expected chutes timeout raised to 60s, got %v", provider.config.Timeout)
	}

	result := provider.Call(context.Background(), "reason", FormatJSON)
	if result.Failed() {
		t.Fatalf("Call failed: %s", result.Err)
	}
	if result.Data["resolution"] != "PENDING" {
		t.Errorf("Expected PENDING, got %v", result.Data["resolution"])
	}
}

func TestChatProvider_Groq_InvalidJSON(t *testing.T) {
	server := chatServer(t, "not json at all", nil)
	defer server.Close()

	provider, err := NewChatProvider("groq", Config{APIKey: "gsk", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	result := provider.Call(context.Background(), "reason", FormatJSON)
	if result.Err != "invalid JSON response from groq" {
		t.Errorf("Expected parse error marker, got %q", result.Err)
	}
}

func TestChatProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewChatProvider("openai", Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	result := provider.Call(context.Background(), "prompt", FormatText)
	if !result.Failed() {
		t.Fatal("Expected error marker, got success")
	}
	if !strings.Contains(result.Err, "500") {
		t.Errorf("Expected status in error marker, got %s", result.Err)
	}
}

func TestChatProvider_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewChatProvider("openai", Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result := provider.Call(ctx, "prompt", FormatText)
	if !result.Failed() {
		t.Fatal("Expected timeout error marker, got success")
	}
}

func TestNewChatProvider_MissingCredentials(t *testing.T) {
	_, err := NewChatProvider("openai", Config{})
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("Expected ErrNoProvider, got %v", err)
	}

	_, err = NewChatProvider("chutes", Config{APIKey: "cpk"})
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("Expected ErrNoProvider for missing slug, got %v", err)
	}
}
