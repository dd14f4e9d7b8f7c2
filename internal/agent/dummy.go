package agent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/ppiankov/subnet-miner/internal/model"
)

var dummySummaries = map[model.Resolution]string{
	model.ResolutionPending: "The prediction deadline has not yet passed. Current analysis shows the statement is still pending verification.",
	model.ResolutionTrue:    "The prediction has been verified as TRUE. The conditions specified in the statement have been met.",
	model.ResolutionFalse:   "The prediction has been verified as FALSE. The conditions specified in the statement were not met by the deadline.",
}

var dummySources = []string{
	"CoinGecko API",
	"CoinMarketCap",
	"Yahoo Finance",
	"Bloomberg Terminal",
	"Reuters Market Data",
	"Binance Exchange",
	"Kraken Exchange",
	"Historical Price Data",
	"Market Analysis",
	"Trading View",
}

// DummyAgent produces plausible random responses for infrastructure testing
type DummyAgent struct {
	accuracy        float64
	delay           time.Duration
	confidenceRange [2]float64
	config          model.AgentConfig
	now             func() time.Time
	log             *slog.Logger
}

// NewDummyAgent reads accuracy, delay and confidence_range from config
func NewDummyAgent(config model.AgentConfig, logger *slog.Logger) *DummyAgent {
	if logger == nil {
		logger = slog.Default()
	}
	d := &DummyAgent{
		accuracy:        config.Float("accuracy", 0.7),
		delay:           config.Duration("delay", 500*time.Millisecond),
		confidenceRange: config.Range("confidence_range", [2]float64{60, 95}),
		config:          config,
		now:             time.Now,
		log:             logger,
	}
	d.log.Info("initialized agent", "agent", d.Name(), "accuracy", d.accuracy, "delay", d.delay, "confidence_range", d.confidenceRange)
	return d
}

// Name returns the agent name
func (d *DummyAgent) Name() string {
	return "DummyAgent"
}

// Info describes the agent
func (d *DummyAgent) Info() Info {
	return Info{Name: d.Name(), Strategy: "dummy", Config: d.config.Masked()}
}

// Verify returns a random verdict shaped like a real one
func (d *DummyAgent) Verify(ctx context.Context, st model.Statement) (*model.MinerResponse, error) {
	// Emulate processing latency
	if err := sleepContext(ctx, d.delay); err != nil {
		return nil, err
	}

	resolution := d.determineResolution(st)
	low, high := d.confidenceRange[0], d.confidenceRange[1]
	confidence := low + rand.Float64()*(high-low)

	resp := model.NewResponse(st.Statement, resolution, confidence, dummySummaries[resolution], sampleSources())
	resp.Reasoning = fmt.Sprintf("Dummy agent analysis: Resolution=%s, Confidence=%.1f%%", resolution, confidence)
	resp.TargetDate = st.EndDate
	resp.TargetValue = ExtractTargetValue(st.Statement)
	resp.CurrentValue = fakeCurrentValue(resp.TargetValue)

	return resp, nil
}

// determineResolution: future or unknown deadline is PENDING, otherwise a coin flip.
// accuracy does not bias the flip.
func (d *DummyAgent) determineResolution(st model.Statement) model.Resolution {
	deadline, ok := st.Deadline()
	if !ok || deadline.After(d.now()) {
		return model.ResolutionPending
	}
	if rand.IntN(2) == 0 {
		return model.ResolutionTrue
	}
	return model.ResolutionFalse
}

// sampleSources picks 2-4 distinct sources
func sampleSources() []string {
	n := 2 + rand.IntN(3)
	picked := make([]string, 0, n)
	for _, i := range rand.Perm(len(dummySources))[:n] {
		picked = append(picked, dummySources[i])
	}
	return picked
}

// fakeCurrentValue draws a value within 50% of target, rounded to cents
func fakeCurrentValue(target *float64) *float64 {
	if target == nil || *target == 0 {
		return nil
	}
	low := *target * 0.5
	v := low + rand.Float64()*(*target*1.5-low)
	v = math.Round(v*100) / 100
	return &v
}
