package agent

import (
	"context"
	"time"

	"github.com/ppiankov/subnet-miner/internal/market"
	"github.com/ppiankov/subnet-miner/internal/model"
	"github.com/ppiankov/subnet-miner/internal/resolution"
)

// Agent verifies a single statement.
// Implementations may return sloppy or invalid responses; the dispatch
// layer is responsible for enforcing the response contract.
type Agent interface {
	// Name returns the agent name used in logs and error summaries
	Name() string

	// Verify judges the statement. It may block on network calls and
	// must honour ctx cancellation.
	Verify(ctx context.Context, statement model.Statement) (*model.MinerResponse, error)
}

// Info describes a configured agent
type Info struct {
	Name     string            `json:"name"`
	Strategy string            `json:"strategy"`
	Provider string            `json:"provider,omitempty"`
	Config   model.AgentConfig `json:"config"`
}

// Describer is implemented by agents that can report their configuration
type Describer interface {
	Info() Info
}

// Describe returns the agent's Info, or a minimal one built from its name
func Describe(a Agent) Info {
	if d, ok := a.(Describer); ok {
		return d.Info()
	}
	return Info{Name: a.Name(), Config: model.AgentConfig{}}
}

// PriceSource resolves coin symbols and fetches prices
type PriceSource interface {
	ResolveID(ctx context.Context, symbol string) string
	FindSymbol(ctx context.Context, text string) (string, bool)
	PriceAt(ctx context.Context, coinID string, deadline, now time.Time) (*market.Price, error)
}

// ResolutionSource returns official resolutions by statement ID
type ResolutionSource interface {
	Get(ctx context.Context, statementID string) (*resolution.APIResolution, error)
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
