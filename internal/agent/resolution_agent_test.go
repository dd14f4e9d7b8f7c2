package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/subnet-miner/internal/model"
	"github.com/ppiankov/subnet-miner/internal/resolution"
)

// stubAgent returns a fixed response
type stubAgent struct {
	calls int
}

func (s *stubAgent) Name() string { return "StubAgent" }

func (s *stubAgent) Verify(ctx context.Context, st model.Statement) (*model.MinerResponse, error) {
	s.calls++
	return model.NewResponse(st.Statement, model.ResolutionPending, 42, "fallback", []string{"stub"}), nil
}

func TestResolutionAgent_UsesOfficialResolution(t *testing.T) {
	confidence := 97.0
	resolver := &mockResolver{result: &resolution.APIResolution{Resolution: "TRUE", Confidence: &confidence, Reasoning: "Closed at 101k"}}
	fallback := &stubAgent{}
	a := NewResolutionAgent(model.AgentConfig{}, resolver, fallback, nil)

	resp, err := a.Verify(context.Background(), pastBTC)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if resp.Resolution != model.ResolutionTrue || resp.Confidence != 97 {
		t.Errorf("Expected TRUE/97, got %s/%v", resp.Resolution, resp.Confidence)
	}
	if !strings.HasPrefix(resp.Summary, "Official resolution from subnet API:") {
		t.Errorf("Unexpected summary %q", resp.Summary)
	}
	if resp.TargetDate != pastBTC.EndDate {
		t.Errorf("Expected target date %s, got %s", pastBTC.EndDate, resp.TargetDate)
	}
	if fallback.calls != 0 {
		t.Errorf("Expected fallback unused, got %d calls", fallback.calls)
	}
}

func TestResolutionAgent_FallsBack(t *testing.T) {
	tests := []struct {
		name         string
		resolver     *mockResolver
		statement    model.Statement
		wantResolver int
	}{
		{"not found", &mockResolver{}, pastBTC, 1},
		{"lookup error", &mockResolver{err: errors.New("API error (503): unavailable")}, pastBTC, 1},
		{"no statement id", &mockResolver{}, model.Statement{Statement: "No id here", EndDate: "2030-01-01"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &stubAgent{}
			a := NewResolutionAgent(model.AgentConfig{}, tt.resolver, fallback, nil)

			resp, err := a.Verify(context.Background(), tt.statement)
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if resp.Summary != "fallback" {
				t.Errorf("Expected fallback response, got %q", resp.Summary)
			}
			if fallback.calls != 1 {
				t.Errorf("Expected 1 fallback call, got %d", fallback.calls)
			}
			if tt.resolver.calls != tt.wantResolver {
				t.Errorf("Expected %d resolver calls, got %d", tt.wantResolver, tt.resolver.calls)
			}
		})
	}
}

func TestResolutionAgent_Info(t *testing.T) {
	a := NewResolutionAgent(model.AgentConfig{"api_url": "https://api.subnet90.com"}, &mockResolver{}, &stubAgent{}, nil)
	info := Describe(a)
	if info.Name != "ResolutionAgent" || info.Strategy != "resolution_api" {
		t.Errorf("Unexpected info %+v", info)
	}

	stub := Describe(&stubAgent{})
	if stub.Name != "StubAgent" || stub.Config == nil {
		t.Errorf("Expected minimal info for non-describer, got %+v", stub)
	}
}
