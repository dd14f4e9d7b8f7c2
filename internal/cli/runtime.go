package cli

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/subnet-miner/internal/agent"
	"github.com/ppiankov/subnet-miner/internal/dispatch"
	"github.com/ppiankov/subnet-miner/internal/metrics"
	"github.com/ppiankov/subnet-miner/internal/model"
	"github.com/ppiankov/subnet-miner/internal/store"
)

// minerRuntime is the wired verification stack shared by serve, verify and batch
type minerRuntime struct {
	processor *dispatch.Processor
	metrics   *metrics.Metrics
	history   *store.History
	strategy  string
}

// newRuntime builds the agent for cfg and wraps it in a processor.
// Metrics are always collected; history only when enabled.
func newRuntime(cfg *model.Config, logger *slog.Logger) (*minerRuntime, error) {
	a, err := agent.New(cfg.Miner.Strategy, cfg.AgentConfig(), agent.Deps{Logger: logger})
	if err != nil {
		return nil, err
	}

	rt := &minerRuntime{
		metrics:  metrics.New(cfg.Miner.Strategy),
		strategy: cfg.Miner.Strategy,
	}
	recorders := []dispatch.Recorder{rt.metrics}

	if cfg.History.Enabled {
		h, err := store.Open(cfg.History.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		rt.history = h
		recorders = append(recorders, h)
	}

	var uid *int
	if cfg.Miner.UID >= 0 {
		v := cfg.Miner.UID
		uid = &v
	}

	rt.processor = dispatch.NewProcessor(a, dispatch.Config{
		Timeout:   cfg.Miner.VerificationTimeout,
		MinerUID:  uid,
		Recorders: recorders,
		Logger:    logger,
	})
	return rt, nil
}

// Close releases the history database
func (rt *minerRuntime) Close() error {
	if rt.history != nil {
		return rt.history.Close()
	}
	return nil
}

func (rt *minerRuntime) minerVersion() string {
	return model.MinerVersion(rt.strategy)
}
