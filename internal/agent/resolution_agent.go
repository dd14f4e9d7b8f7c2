package agent

import (
	"context"
	"log/slog"

	"github.com/ppiankov/subnet-miner/internal/model"
	"github.com/ppiankov/subnet-miner/internal/resolution"
)

// ResolutionAgent asks the subnet resolution authority first and delegates
// to a fallback agent when no official resolution exists
type ResolutionAgent struct {
	resolver ResolutionSource
	fallback Agent
	config   model.AgentConfig
	log      *slog.Logger
}

// NewResolutionAgent wraps fallback with an authority lookup
func NewResolutionAgent(config model.AgentConfig, resolver ResolutionSource, fallback Agent, logger *slog.Logger) *ResolutionAgent {
	if logger == nil {
		logger = slog.Default()
	}
	a := &ResolutionAgent{
		resolver: resolver,
		fallback: fallback,
		config:   config,
		log:      logger,
	}
	a.log.Info("initialized agent", "agent", a.Name(), "api_url", config.String("api_url", resolution.DefaultAPIURL), "fallback", fallback.Name())
	return a
}

// Name returns the agent name
func (a *ResolutionAgent) Name() string {
	return "ResolutionAgent"
}

// Info describes the agent and its fallback
func (a *ResolutionAgent) Info() Info {
	fallback := Describe(a.fallback)
	return Info{
		Name:     a.Name(),
		Strategy: "resolution_api",
		Provider: fallback.Provider,
		Config:   a.config.Masked(),
	}
}

// Verify returns the official resolution when the authority has one
func (a *ResolutionAgent) Verify(ctx context.Context, st model.Statement) (*model.MinerResponse, error) {
	if st.ID != "" && a.resolver != nil {
		api, err := a.resolver.Get(ctx, st.ID)
		switch {
		case err != nil:
			// Don't fail, fall back to independent verification
			a.log.Warn("resolution API lookup failed", "statement_id", st.ID, "error", err)
		case api != nil:
			resp := resolution.ToMinerResponse(api, st.Statement)
			resp.TargetDate = st.EndDate
			return resp, nil
		default:
			a.log.Debug("no official resolution yet", "statement_id", st.ID)
		}
	}

	return a.fallback.Verify(ctx, st)
}
