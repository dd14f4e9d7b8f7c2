package model

import (
	"strings"
	"testing"
	"time"
)

func TestParseResolution(t *testing.T) {
	tests := []struct {
		input string
		want  Resolution
	}{
		{"TRUE", ResolutionTrue},
		{"true", ResolutionTrue},
		{" False ", ResolutionFalse},
		{"PENDING", ResolutionPending},
		{"maybe", ResolutionPending},
		{"", ResolutionPending},
	}

	for _, tt := range tests {
		if got := ParseResolution(tt.input); got != tt.want {
			t.Errorf("ParseResolution(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestNormalize_TruncatesSourcesAndSummary(t *testing.T) {
	sources := make([]string, 15)
	for i := range sources {
		sources[i] = "source"
	}

	resp := NewResponse("stmt", ResolutionTrue, 80, strings.Repeat("x", 1500), sources)

	if len(resp.Sources) != MaxSources {
		t.Errorf("Expected %d sources, got %d", MaxSources, len(resp.Sources))
	}
	if n := len([]rune(resp.Summary)); n != MaxSummaryLength {
		t.Errorf("Expected summary length %d, got %d", MaxSummaryLength, n)
	}
	if !strings.HasSuffix(resp.Summary, "...") {
		t.Error("Expected truncated summary to end with ...")
	}
	if resp.Timestamp == "" {
		t.Error("Expected timestamp to be defaulted")
	}
}

func TestNormalize_KeepsShortSummary(t *testing.T) {
	resp := NewResponse("stmt", ResolutionFalse, 10, "short", []string{"a"})
	if resp.Summary != "short" {
		t.Errorf("Expected summary unchanged, got %q", resp.Summary)
	}
}

func TestIsValid(t *testing.T) {
	valid := NewResponse("stmt", ResolutionTrue, 50, "ok", []string{"a"})
	if !valid.IsValid() {
		t.Error("Expected response to be valid")
	}

	tests := []struct {
		name   string
		mutate func(r *MinerResponse)
	}{
		{"negative confidence", func(r *MinerResponse) { r.Confidence = -1 }},
		{"confidence above 100", func(r *MinerResponse) { r.Confidence = 100.5 }},
		{"empty summary", func(r *MinerResponse) { r.Summary = "" }},
		{"no sources", func(r *MinerResponse) { r.Sources = nil }},
		{"unknown resolution", func(r *MinerResponse) { r.Resolution = "MAYBE" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := *valid
			tt.mutate(&r)
			if r.IsValid() {
				t.Error("Expected response to be invalid")
			}
		})
	}

	var nilResp *MinerResponse
	if nilResp.IsValid() {
		t.Error("Expected nil response to be invalid")
	}
}

func TestComputeProofHash_KnownVector(t *testing.T) {
	resp := &MinerResponse{
		Statement:  "Bitcoin will reach $100,000 by December 31, 2024",
		Resolution: ResolutionTrue,
		Confidence: 85,
		Sources:    []string{"CoinGecko API", "Binance Exchange"},
		Timestamp:  "2024-06-01T12:00:00.000000Z",
	}

	want := "7d8e1de5d00964168c306f92ada56f96a0c9cb8515edaa0c15e25f2fa358b8d3"
	if got := resp.ComputeProofHash(); got != want {
		t.Errorf("Expected hash %s, got %s", want, got)
	}
}

func TestComputeProofHash_EscapesNonASCII(t *testing.T) {
	resp := &MinerResponse{
		Statement:  "Ether → $5k \U0001F680 \"quoted\"",
		Resolution: ResolutionPending,
		Confidence: 72.5,
		Sources:    []string{},
		Timestamp:  "t",
	}

	want := "34f0eba40b09dda260a435c24e701d9a80161f00c1e4f1866f1b9c57bbf26717"
	if got := resp.ComputeProofHash(); got != want {
		t.Errorf("Expected hash %s, got %s", want, got)
	}
}

func TestProofHash_DeterministicAndSensitive(t *testing.T) {
	base := MinerResponse{
		Statement:  "stmt",
		Resolution: ResolutionFalse,
		Confidence: 64.2,
		Sources:    []string{"a", "b"},
		Timestamp:  "2024-01-01T00:00:00.000000Z",
	}

	a, b := base, base
	if a.ComputeProofHash() != b.ComputeProofHash() {
		t.Fatal("Expected equal inputs to produce equal hashes")
	}

	changed := base
	changed.Confidence = 64.3
	if changed.ComputeProofHash() == base.ComputeProofHash() {
		t.Error("Expected confidence change to alter hash")
	}

	changed = base
	changed.Sources = []string{"b", "a"}
	if changed.ComputeProofHash() == base.ComputeProofHash() {
		t.Error("Expected source order change to alter hash")
	}

	// summary is not part of the digest
	changed = base
	changed.Summary = "different"
	if changed.ComputeProofHash() != base.ComputeProofHash() {
		t.Error("Expected summary change to leave hash unchanged")
	}
}

func TestEnsureProofHash_KeepsExisting(t *testing.T) {
	resp := NewResponse("stmt", ResolutionTrue, 90, "ok", []string{"a"})
	resp.ProofHash = "preset"
	resp.EnsureProofHash()
	if resp.ProofHash != "preset" {
		t.Errorf("Expected existing hash to be kept, got %s", resp.ProofHash)
	}

	fresh := NewResponse("stmt", ResolutionTrue, 90, "ok", []string{"a"})
	fresh.EnsureProofHash()
	if !fresh.VerifyProofHash() {
		t.Error("Expected generated hash to verify")
	}

	fresh.Resolution = ResolutionFalse
	if fresh.VerifyProofHash() {
		t.Error("Expected tampered response to fail verification")
	}
}

func TestCanonicalFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{85, "85.0"},
		{0, "0.0"},
		{72.5, "72.5"},
		{0.1, "0.1"},
		{0.00001, "1e-05"},
		{100, "100.0"},
	}
	for _, tt := range tests {
		if got := canonicalFloat(tt.in); got != tt.want {
			t.Errorf("canonicalFloat(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNow_UsesTimestampLayout(t *testing.T) {
	orig := nowFunc
	defer func() { nowFunc = orig }()
	nowFunc = func() time.Time { return time.Date(2024, 3, 1, 8, 30, 0, 123456000, time.UTC) }

	if got := Now(); got != "2024-03-01T08:30:00.123456Z" {
		t.Errorf("Expected 2024-03-01T08:30:00.123456Z, got %s", got)
	}
}
