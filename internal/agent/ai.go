package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/subnet-miner/internal/llm"
	"github.com/ppiankov/subnet-miner/internal/model"
)

// Stage is a step of the AI verification pipeline
type Stage int

const (
	StageStart Stage = iota
	StageAnalyzed
	StageDataCollected
	StageReasoned
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageAnalyzed:
		return "analyzed"
	case StageDataCollected:
		return "data_collected"
	case StageReasoned:
		return "reasoned"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// AIAgent verifies statements with an LLM provider and market data
type AIAgent struct {
	providerName string
	provider     llm.Provider // nil when no provider is configured
	market       PriceSource  // nil disables data collection
	config       model.AgentConfig
	now          func() time.Time
	log          *slog.Logger
}

// NewAIAgent creates the agent. provider may be nil; the agent then answers
// every statement with a PENDING response explaining the missing configuration.
func NewAIAgent(config model.AgentConfig, provider llm.Provider, prices PriceSource, logger *slog.Logger) *AIAgent {
	if logger == nil {
		logger = slog.Default()
	}
	a := &AIAgent{
		providerName: config.String("llm_provider", "openai"),
		provider:     provider,
		market:       prices,
		config:       config,
		now:          time.Now,
		log:          logger,
	}
	a.log.Info("initialized agent",
		"agent", a.Name(),
		"llm_provider", a.providerName,
		"has_llm_provider", provider != nil,
		"has_market_data", prices != nil)
	return a
}

// Name returns the agent name
func (a *AIAgent) Name() string {
	return "AIAgent"
}

// Info describes the agent
func (a *AIAgent) Info() Info {
	info := Info{Name: a.Name(), Strategy: "ai_reasoning", Config: a.config.Masked()}
	if a.provider != nil {
		info.Provider = a.provider.ModelName()
	}
	return info
}

// Verify runs analyze, collect and reason in sequence.
// Pipeline failures and panics become PENDING responses; the error is always nil.
func (a *AIAgent) Verify(ctx context.Context, st model.Statement) (resp *model.MinerResponse, err error) {
	stage := StageStart
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("AI verification panicked", "stage", stage, "panic", r)
			resp, err = a.errorResponse(st, fmt.Errorf("panic during %s stage: %v", stage, r)), nil
		}
	}()

	a.log.Info("starting AI verification", "statement", preview(st.Statement), "statement_id", st.ID)

	if a.provider == nil {
		a.log.Warn("AI reasoning requested but no LLM provider configured")
		return a.noProviderResponse(st), nil
	}

	// 1. Analyze statement
	analysis := a.analyze(ctx, st)
	stage = StageAnalyzed
	if cerr := ctx.Err(); cerr != nil {
		return a.errorResponse(st, cerr), nil
	}

	// 2. Collect market data (don't fail, just degrade)
	data := a.collect(ctx, st, analysis)
	stage = StageDataCollected
	if cerr := ctx.Err(); cerr != nil {
		return a.errorResponse(st, cerr), nil
	}

	// 3. Reason over statement, analysis and data
	resp = a.reason(ctx, st, analysis, data)
	stage = StageReasoned
	if cerr := ctx.Err(); cerr != nil {
		return a.errorResponse(st, cerr), nil
	}

	// 4. Attach extracted values
	a.enrich(resp, st, analysis, data)
	stage = StageDone

	a.log.Info("AI verification complete",
		"stage", stage,
		"resolution", resp.Resolution,
		"confidence", resp.Confidence,
		"analysis", analysis.Origin)
	return resp, nil
}

func (a *AIAgent) analyze(ctx context.Context, st model.Statement) Analysis {
	result := a.provider.Call(ctx, buildAnalysisPrompt(st), llm.FormatJSON)
	if result.Failed() || len(result.Data) == 0 {
		a.log.Warn("structured analysis unavailable, using pattern matching", "error", result.Err)
		return patternAnalysis(st)
	}

	analysis := analysisFromMap(result.Data)
	if analysis.PredictionType == "" {
		return patternAnalysis(st)
	}
	return analysis
}

func (a *AIAgent) collect(ctx context.Context, st model.Statement, analysis Analysis) *CollectedData {
	if a.market == nil || !analysis.IsPrice() {
		return nil
	}

	var coinID string
	if analysis.AssetSymbol != "" {
		coinID = a.market.ResolveID(ctx, analysis.AssetSymbol)
	} else if id, ok := a.market.FindSymbol(ctx, st.Statement); ok {
		coinID = id
	}
	if coinID == "" {
		return nil
	}

	// The statement's own deadline wins over the model's reading of it
	deadline, ok := st.Deadline()
	if !ok {
		deadline, ok = model.ParseTimestamp(analysis.Deadline)
	}
	if !ok {
		deadline = time.Time{}
	}

	now := a.now()
	data := &CollectedData{CoinID: coinID, VerificationType: "current"}
	if !deadline.IsZero() && deadline.Before(now) {
		data.VerificationType = "historical"
	}

	price, err := a.market.PriceAt(ctx, coinID, deadline, now)
	if err != nil {
		a.log.Warn("price data unavailable", "coin", coinID, "error", err)
		data.Err = err.Error()
		return data
	}
	data.Price = price
	return data
}

func (a *AIAgent) reason(ctx context.Context, st model.Statement, analysis Analysis, data *CollectedData) *model.MinerResponse {
	now := a.now()
	result := a.provider.Call(ctx, buildReasoningPrompt(st, analysis, data, now), llm.FormatJSON)
	if result.Failed() || len(result.Data) == 0 {
		a.log.Warn("reasoning call failed, using basic reasoning", "error", result.Err)
		resp := basicReasoning(st, analysis, data, now)
		if result.Err != "" {
			resp.Reasoning += " (" + result.Err + ")"
		}
		return resp
	}
	return convertVerdict(st, result.Data)
}

func (a *AIAgent) enrich(resp *model.MinerResponse, st model.Statement, analysis Analysis, data *CollectedData) {
	resp.TargetDate = st.EndDate
	if resp.TargetValue == nil {
		resp.TargetValue = analysis.TargetValue
	}
	if resp.TargetValue == nil {
		resp.TargetValue = ExtractTargetValue(st.Statement)
	}
	if resp.CurrentValue == nil && data.HasPrice() {
		resp.CurrentValue = model.Float(data.Price.USD)
	}
	if resp.DirectionInferred == "" {
		resp.DirectionInferred = inferDirection(st)
	}
}

func (a *AIAgent) noProviderResponse(st model.Statement) *model.MinerResponse {
	resp := model.NewResponse(st.Statement, model.ResolutionPending, 50,
		fmt.Sprintf("No %s configuration available, unable to verify independently", a.providerName),
		[]string{"basic_analysis"})
	resp.Reasoning = "This miner requires a configured LLM provider (set LLM_PROVIDER and corresponding API key) to provide accurate verification"
	resp.TargetDate = st.EndDate
	return resp
}

func (a *AIAgent) errorResponse(st model.Statement, err error) *model.MinerResponse {
	if errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("AI verification timed out", "statement_id", st.ID)
	} else {
		a.log.Error("AI verification failed", "error", err)
	}
	resp := model.NewResponse(st.Statement, model.ResolutionPending, 0, "Verification failed: "+err.Error(), []string{"error"})
	resp.Reasoning = "Error during AI verification: " + err.Error()
	return resp
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= 60 {
		return s
	}
	return string(r[:60]) + "..."
}
