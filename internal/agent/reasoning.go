package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/subnet-miner/internal/market"
	"github.com/ppiankov/subnet-miner/internal/model"
)

// CollectedData is the stage-2 output
type CollectedData struct {
	CoinID           string
	Price            *market.Price
	VerificationType string // "historical" or "current"
	Err              string
}

// HasPrice reports whether a price was fetched
func (d *CollectedData) HasPrice() bool {
	return d != nil && d.Price != nil
}

// promptView renders the data in the shape the reasoning prompt shows
func (d *CollectedData) promptView() map[string]any {
	view := map[string]any{}
	if d == nil {
		return view
	}
	if d.Price != nil {
		quote := map[string]any{
			"usd":        d.Price.USD,
			"historical": d.Price.Historical,
		}
		if d.Price.Date != "" {
			quote["date"] = d.Price.Date
		}
		if d.Price.Change24h != nil {
			quote["usd_24h_change"] = *d.Price.Change24h
		}
		if d.Price.FallbackReason != "" {
			quote["fallback_reason"] = d.Price.FallbackReason
		}
		view["price_data"] = map[string]any{d.CoinID: quote}
	}
	if d.VerificationType != "" {
		view["verification_type"] = d.VerificationType
	}
	if d.Err != "" {
		view["error"] = d.Err
	}
	return view
}

// convertVerdict maps the structured reasoning answer onto a response.
// Missing fields get conservative defaults; confidence is clamped to [0,100].
func convertVerdict(st model.Statement, verdict map[string]any) *model.MinerResponse {
	confidence := 50.0
	if v, ok := parseNumber(verdict["confidence"]); ok && !math.IsNaN(v) {
		confidence = math.Max(0, math.Min(100, v))
	}

	summary := stringField(verdict, "summary")
	if summary == "" {
		summary = "AI analysis"
	}

	sources := stringList(verdict["sources"])
	if len(sources) == 0 {
		sources = []string{"ai_reasoning"}
	}

	resp := model.NewResponse(st.Statement, model.ParseResolution(stringField(verdict, "resolution")), confidence, summary, sources)
	resp.Reasoning = evidenceText(verdict["key_evidence"])
	return resp
}

func evidenceText(v any) string {
	switch e := v.(type) {
	case nil:
		return "AI-powered analysis"
	case string:
		if strings.TrimSpace(e) == "" {
			return "AI-powered analysis"
		}
		return e
	default:
		out, err := json.Marshal(e)
		if err != nil {
			return fmt.Sprint(e)
		}
		return string(out)
	}
}

// basicReasoning decides locally when the reasoning call is unavailable.
// A passed deadline without data yields PENDING, never a blind FALSE.
func basicReasoning(st model.Statement, analysis Analysis, data *CollectedData, now time.Time) *model.MinerResponse {
	deadline, ok := st.Deadline()
	if !ok {
		resp := model.NewResponse(st.Statement, model.ResolutionPending, 0, "Error parsing deadline", []string{"error"})
		resp.Reasoning = "Could not parse end_date"
		return resp
	}

	if deadline.After(now) {
		resp := model.NewResponse(st.Statement, model.ResolutionPending, 95, "Deadline has not yet passed", []string{"system_clock"})
		resp.Reasoning = fmt.Sprintf("Current time: %s, Deadline: %s", now.UTC().Format(time.RFC3339), deadline.Format(time.RFC3339))
		return resp
	}

	target := analysis.TargetValue
	if target == nil {
		target = ExtractTargetValue(st.Statement)
	}
	cmp := ParseComparison(st.Statement)

	if data.HasPrice() && target != nil && cmp != CompareUnknown {
		price := data.Price.USD
		resolution := model.ResolutionFalse
		if cmp.Holds(price, *target) {
			resolution = model.ResolutionTrue
		}

		// A current price standing in for the deadline price is weak evidence
		confidence := 80.0
		kind := "historical"
		if !data.Price.Historical {
			confidence = 35
			kind = "current (historical unavailable)"
		}

		summary := fmt.Sprintf("Deadline passed. The %s price of %s was %.2f USD against a target of %s %.2f USD.",
			kind, data.CoinID, price, cmp, *target)
		resp := model.NewResponse(st.Statement, resolution, confidence, summary, []string{"coingecko", "basic_analysis"})
		resp.Reasoning = fmt.Sprintf("Rule-based comparison: %.2f %s %.2f is %t", price, cmp, *target, cmp.Holds(price, *target))
		return resp
	}

	resp := model.NewResponse(st.Statement, model.ResolutionPending, 40, "Deadline passed, but insufficient data for verification", []string{"basic_analysis"})
	resp.Reasoning = "Limited verification capability without price data or model reasoning"
	return resp
}
