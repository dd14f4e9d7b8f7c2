package agent

import (
	"fmt"
	"strings"

	"github.com/ppiankov/subnet-miner/internal/model"
)

// Analysis is the stage-1 classification of a statement
type Analysis struct {
	PredictionType       string   `json:"prediction_type"`
	AssetSymbol          string   `json:"asset_symbol,omitempty"`
	TargetValue          *float64 `json:"target_value,omitempty"`
	Deadline             string   `json:"deadline,omitempty"`
	DataSourcesNeeded    []string `json:"data_sources_needed,omitempty"`
	VerificationStrategy string   `json:"verification_strategy"`

	// Origin is "llm" or "pattern"
	Origin string `json:"-"`
}

// IsPrice reports whether the analysis classified a price prediction
// ("price", "crypto_price", "stock price", ...)
func (a Analysis) IsPrice() bool {
	return strings.Contains(strings.ToLower(a.PredictionType), "price")
}

// analysisFromMap reads a structured LLM answer leniently
func analysisFromMap(data map[string]any) Analysis {
	a := Analysis{
		PredictionType:       stringField(data, "prediction_type"),
		AssetSymbol:          stringField(data, "asset_symbol"),
		Deadline:             stringField(data, "deadline"),
		VerificationStrategy: stringField(data, "verification_strategy"),
		DataSourcesNeeded:    stringList(data["data_sources_needed"]),
		Origin:               "llm",
	}
	if v, ok := parseNumber(data["target_value"]); ok {
		a.TargetValue = &v
	}
	// Models answer "N/A" or "none" rather than leaving the field out
	switch strings.ToLower(a.AssetSymbol) {
	case "n/a", "none", "null", "unknown", "...":
		a.AssetSymbol = ""
	}
	return a
}

// patternAnalysis is the fallback when no structured analysis is available
func patternAnalysis(st model.Statement) Analysis {
	lower := strings.ToLower(st.Statement)
	if strings.Contains(lower, "bitcoin") || strings.Contains(lower, "btc") {
		return Analysis{
			PredictionType:       "crypto_price",
			AssetSymbol:          "bitcoin",
			TargetValue:          ExtractTargetValue(st.Statement),
			Deadline:             st.EndDate,
			DataSourcesNeeded:    []string{"coingecko", "binance"},
			VerificationStrategy: "price_comparison",
			Origin:               "pattern",
		}
	}

	return Analysis{
		PredictionType:       "unknown",
		VerificationStrategy: "date_based",
		Origin:               "pattern",
	}
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func stringList(v any) []string {
	switch items := v.(type) {
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" && item != nil {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return items
	case string:
		if s := strings.TrimSpace(items); s != "" {
			return []string{s}
		}
	}
	return nil
}
