package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/subnet-miner/internal/llm"
	"github.com/ppiankov/subnet-miner/internal/market"
	"github.com/ppiankov/subnet-miner/internal/resolution"
)

// mockProvider answers calls from a script, one entry per call
type mockProvider struct {
	mu      sync.Mutex
	script  []func(prompt string) llm.Result
	prompts []string
}

func (m *mockProvider) Name() string      { return "mock" }
func (m *mockProvider) ModelName() string { return "mock/test-model" }

func (m *mockProvider) Call(ctx context.Context, prompt string, format llm.Format) llm.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	if i >= len(m.script) {
		return llm.Result{Err: "mock: no scripted response"}
	}
	return m.script[i](prompt)
}

func respondJSON(data map[string]any) func(string) llm.Result {
	return func(string) llm.Result { return llm.Result{Data: data} }
}

func respondError(msg string) func(string) llm.Result {
	return func(string) llm.Result { return llm.Result{Err: msg} }
}

// mockPrices is a PriceSource with fixed answers
type mockPrices struct {
	mu         sync.Mutex
	ids        map[string]string
	price      *market.Price
	err        error
	resolved   []string
	deadlines  []time.Time
	findCalled bool
}

func (m *mockPrices) ResolveID(ctx context.Context, symbol string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, symbol)
	if id, ok := m.ids[strings.ToLower(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

func (m *mockPrices) FindSymbol(ctx context.Context, text string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalled = true
	lower := strings.ToLower(text)
	for term, id := range m.ids {
		if strings.Contains(lower, term) {
			return id, true
		}
	}
	return "", false
}

func (m *mockPrices) PriceAt(ctx context.Context, coinID string, deadline, now time.Time) (*market.Price, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadlines = append(m.deadlines, deadline)
	if m.err != nil {
		return nil, m.err
	}
	p := *m.price
	p.CoinID = coinID
	return &p, nil
}

// mockResolver returns a fixed resolution or error
type mockResolver struct {
	result *resolution.APIResolution
	err    error
	calls  int
}

func (m *mockResolver) Get(ctx context.Context, id string) (*resolution.APIResolution, error) {
	m.calls++
	return m.result, m.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
