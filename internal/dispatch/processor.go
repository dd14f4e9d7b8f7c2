package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ppiankov/subnet-miner/internal/agent"
	"github.com/ppiankov/subnet-miner/internal/model"
)

// Outcome classifies how a verification ended
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
	OutcomePanic   Outcome = "panic"
	OutcomeTimeout Outcome = "timeout"
)

// Recorder observes every response leaving the processor
type Recorder interface {
	Record(ctx context.Context, st model.Statement, resp *model.MinerResponse, outcome Outcome, elapsed time.Duration)
}

// Config configures a Processor
type Config struct {
	// Timeout bounds one verification; zero means only the caller's context applies
	Timeout time.Duration

	// MinerUID is stamped on responses that have none
	MinerUID *int

	Recorders []Recorder
	Logger    *slog.Logger
}

// Processor is the single entry point that enforces the response contract
// around any agent: it never returns nil and never lets an error, a panic
// or an invalid response through.
type Processor struct {
	agent     agent.Agent
	timeout   time.Duration
	uid       *int
	recorders []Recorder
	log       *slog.Logger
	started   time.Time

	mu       sync.Mutex
	outcomes map[Outcome]int64
}

// NewProcessor wraps a
func NewProcessor(a agent.Agent, cfg Config) *Processor {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		agent:     a,
		timeout:   cfg.Timeout,
		uid:       cfg.MinerUID,
		recorders: cfg.Recorders,
		log:       log,
		started:   time.Now(),
		outcomes:  make(map[Outcome]int64),
	}
}

// Agent returns the wrapped agent
func (p *Processor) Agent() agent.Agent {
	return p.agent
}

type verifyResult struct {
	resp *model.MinerResponse
	err  error
}

// Process verifies st and returns a valid response with a proof hash
func (p *Processor) Process(ctx context.Context, st model.Statement) *model.MinerResponse {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, outcome := p.invoke(ctx, st)

	// Finalize: fill, stamp, hash
	if resp.Statement == "" {
		resp.Statement = st.Statement
	}
	resp.Normalize()
	if resp.MinerUID == nil && p.uid != nil {
		uid := *p.uid
		resp.MinerUID = &uid
	}
	resp.EnsureProofHash()

	elapsed := time.Since(start)
	p.count(outcome)
	// Recorders run even when the verification deadline has passed
	rctx := context.WithoutCancel(ctx)
	for _, r := range p.recorders {
		r.Record(rctx, st, resp, outcome, elapsed)
	}

	p.log.Info("statement processed",
		"agent", p.agent.Name(),
		"outcome", outcome,
		"resolution", resp.Resolution,
		"confidence", resp.Confidence,
		"elapsed", elapsed)
	return resp
}

// invoke runs the agent in its own goroutine so a slow agent that ignores
// ctx still cannot hold the caller past the deadline
func (p *Processor) invoke(ctx context.Context, st model.Statement) (*model.MinerResponse, Outcome) {
	done := make(chan verifyResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("agent panicked", "agent", p.agent.Name(), "panic", r)
				done <- verifyResult{err: &panicError{value: r}}
			}
		}()
		resp, err := p.agent.Verify(ctx, st)
		done <- verifyResult{resp: resp, err: err}
	}()

	var res verifyResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = verifyResult{err: ctx.Err()}
	}

	if res.err != nil {
		outcome := OutcomeError
		var pe *panicError
		switch {
		case errors.As(res.err, &pe):
			outcome = OutcomePanic
		case errors.Is(res.err, context.DeadlineExceeded):
			outcome = OutcomeTimeout
		}
		p.log.Error("error processing statement", "agent", p.agent.Name(), "error", res.err)
		return ErrorResponse(st, res.err), outcome
	}

	if !res.resp.IsValid() {
		p.log.Error("invalid response generated", "agent", p.agent.Name())
		return InvalidResponse(st, p.agent.Name()), OutcomeInvalid
	}
	return res.resp, OutcomeOK
}

// ErrorResponse is the substitute for an agent that failed
func ErrorResponse(st model.Statement, err error) *model.MinerResponse {
	return model.NewResponse(st.Statement, model.ResolutionPending, 0,
		fmt.Sprintf("Error processing statement: %v", err), []string{"error"})
}

// InvalidResponse is the substitute for an agent that broke the response contract
func InvalidResponse(st model.Statement, agentName string) *model.MinerResponse {
	return model.NewResponse(st.Statement, model.ResolutionPending, 0,
		fmt.Sprintf("Error: %s generated invalid response", agentName), []string{"error"})
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (p *Processor) count(o Outcome) {
	p.mu.Lock()
	p.outcomes[o]++
	p.mu.Unlock()
}

// Stats summarizes the processor's activity
type Stats struct {
	Processed int64             `json:"requests_processed"`
	Outcomes  map[Outcome]int64 `json:"outcomes"`
	Uptime    float64           `json:"uptime_seconds"`
	Agent     agent.Info        `json:"agent"`
	Priority  float64           `json:"priority"`
}

// Stats returns a snapshot of processed counts and agent info
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	outcomes := make(map[Outcome]int64, len(p.outcomes))
	var total int64
	for o, n := range p.outcomes {
		outcomes[o] = n
		total += n
	}
	p.mu.Unlock()

	return Stats{
		Processed: total,
		Outcomes:  outcomes,
		Uptime:    time.Since(p.started).Seconds(),
		Agent:     agent.Describe(p.agent),
		Priority:  1.0,
	}
}
