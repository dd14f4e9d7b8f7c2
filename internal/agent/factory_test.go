package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/subnet-miner/internal/model"
)

func TestNew(t *testing.T) {
	tests := []struct {
		strategy string
		config   model.AgentConfig
		deps     Deps
		wantName string
		wantErr  bool
	}{
		{"dummy", model.AgentConfig{}, Deps{}, "DummyAgent", false},
		{"DUMMY", model.AgentConfig{}, Deps{}, "DummyAgent", false},
		{"", model.AgentConfig{"strategy": "dummy"}, Deps{}, "DummyAgent", false},
		{"", model.AgentConfig{}, Deps{}, "DummyAgent", false},
		{"ai_reasoning", model.AgentConfig{}, Deps{Provider: &mockProvider{}, Prices: &mockPrices{}}, "AIAgent", false},
		{"ai_reasoning", model.AgentConfig{"llm_provider": "openai"}, Deps{}, "AIAgent", false},
		{"resolution_api", model.AgentConfig{}, Deps{Resolver: &mockResolver{}}, "ResolutionAgent", false},
		{"hybrid", model.AgentConfig{}, Deps{}, "", true},
	}

	for _, tt := range tests {
		a, err := New(tt.strategy, tt.config, tt.deps)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q): expected error", tt.strategy)
			} else if !strings.Contains(err.Error(), "unknown strategy") {
				t.Errorf("New(%q): unexpected error %v", tt.strategy, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q) failed: %v", tt.strategy, err)
			continue
		}
		if a.Name() != tt.wantName {
			t.Errorf("New(%q): expected %s, got %s", tt.strategy, tt.wantName, a.Name())
		}
	}
}

func TestNew_AIWithoutCredentialsDegrades(t *testing.T) {
	a, err := New("ai_reasoning", model.AgentConfig{"llm_provider": "groq"}, Deps{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := a.Verify(context.Background(), pastBTC)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if resp.Resolution != model.ResolutionPending || resp.Confidence != 50 {
		t.Errorf("Expected PENDING/50, got %s/%v", resp.Resolution, resp.Confidence)
	}
	if !strings.Contains(resp.Summary, "No groq configuration available") {
		t.Errorf("Unexpected summary %q", resp.Summary)
	}
}

func TestNew_ResolutionFallbackChoice(t *testing.T) {
	withProvider, err := New("resolution_api", model.AgentConfig{}, Deps{Provider: &mockProvider{}, Prices: &mockPrices{}, Resolver: &mockResolver{}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if fb := withProvider.(*ResolutionAgent).fallback.Name(); fb != "AIAgent" {
		t.Errorf("Expected AIAgent fallback, got %s", fb)
	}
	if info := Describe(withProvider); info.Provider != "mock/test-model" {
		t.Errorf("Expected provider in info, got %+v", info)
	}

	withoutProvider, err := New("resolution_api", model.AgentConfig{"llm_provider": "openai"}, Deps{Resolver: &mockResolver{}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if fb := withoutProvider.(*ResolutionAgent).fallback.Name(); fb != "DummyAgent" {
		t.Errorf("Expected DummyAgent fallback, got %s", fb)
	}
}

func TestMarketConfig(t *testing.T) {
	ac := model.DefaultConfig().AgentConfig()
	ac["coingecko_api_key"] = "cg-key"

	cfg := MarketConfig(ac, nil)
	if cfg.APIKey != "cg-key" {
		t.Errorf("Expected API key, got %q", cfg.APIKey)
	}
	if cfg.RequestsPerSecond != 0.5 || cfg.Burst != 3 {
		t.Errorf("Expected 0.5 rps burst 3, got %v/%d", cfg.RequestsPerSecond, cfg.Burst)
	}

	rc := ResolutionConfig(ac, nil)
	if rc.APIURL != "https://api.subnet90.com" {
		t.Errorf("Unexpected API URL %s", rc.APIURL)
	}
}
