package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/subnet-miner/internal/model"
)

// buildAnalysisPrompt asks for the stage-1 classification
func buildAnalysisPrompt(st model.Statement) string {
	var b strings.Builder
	b.WriteString("Analyze this prediction statement and identify:\n")
	b.WriteString("1. What type of prediction is this? (price, event, date-based, etc.)\n")
	b.WriteString("2. What specific data sources would be needed to verify it?\n")
	b.WriteString("3. What is the target value/condition?\n")
	b.WriteString("4. What is the deadline?\n\n")

	fmt.Fprintf(&b, "Statement: %s\n", st.Statement)
	fmt.Fprintf(&b, "End Date: %s\n", st.EndDate)
	fmt.Fprintf(&b, "Initial Value: %s\n", formatOptional(st.InitialValue))
	fmt.Fprintf(&b, "Direction: %s\n\n", orNone(string(st.Direction)))

	b.WriteString(`Return your analysis in JSON format:
{
    "prediction_type": "...",
    "asset_symbol": "...",
    "target_value": ...,
    "deadline": "...",
    "data_sources_needed": [...],
    "verification_strategy": "..."
}`)
	return b.String()
}

// buildReasoningPrompt asks for the final verdict given analysis and data
func buildReasoningPrompt(st model.Statement, analysis Analysis, data *CollectedData, now time.Time) string {
	var b strings.Builder
	b.WriteString("You are a financial prediction verification expert. Based on the data provided, determine if this prediction statement is TRUE, FALSE, or PENDING.\n\n")

	fmt.Fprintf(&b, "Statement: %s\n", st.Statement)
	fmt.Fprintf(&b, "End Date: %s\n\n", st.EndDate)
	fmt.Fprintf(&b, "Analysis: %s\n", indentJSON(analysis))
	fmt.Fprintf(&b, "Collected Data: %s\n\n", indentJSON(data.promptView()))
	fmt.Fprintf(&b, "Current Date: %s\n\n", now.UTC().Format(time.RFC3339))

	b.WriteString(reasoningRules)
	return b.String()
}

const reasoningRules = `CRITICAL VERIFICATION RULES:
1. If the deadline has passed AND you have historical price data for that date:
   - Check if the actual price on the deadline met the target condition
   - Use the historical price data to determine TRUE/FALSE
   - DO NOT assume FALSE just because the deadline passed

2. If the deadline has passed but NO historical data is available:
   - You can still make an educated assessment based on:
     * General market knowledge about the asset
     * The reasonableness of the target vs current market conditions
     * Your knowledge of the asset's historical performance
   - Return PENDING with moderate confidence (30-60%) if unsure
   - Return TRUE/FALSE with lower confidence (20-40%) if you have strong reasoning
   - Always explain your reasoning process and limitations

3. If the deadline is in the future:
   - Return PENDING
   - Use current price trends for confidence estimation

4. Be precise about price comparisons:
   - "reach $100,000" means >= $100,000
   - "above $4,000" means > $4,000
   - "below $50,000" means < $50,000

5. When data is limited:
   - Lower confidence but still provide your best analysis
   - Explain what additional data would improve your assessment
   - Consider the asset's volatility and market context

Respond in JSON format:
{
    "resolution": "TRUE|FALSE|PENDING",
    "confidence": 85,
    "summary": "Detailed explanation of your reasoning and the actual data used...",
    "sources": ["source1", "source2"],
    "key_evidence": "What specific evidence supports this conclusion (include actual prices if available)"
}`

func indentJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%g", *v)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
