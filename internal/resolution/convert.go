package resolution

import (
	"github.com/ppiankov/subnet-miner/internal/model"
)

// ToMinerResponse converts an authority answer into the canonical response.
// Missing fields get the same defaults the subnet API documents.
func ToMinerResponse(api *APIResolution, statement string) *model.MinerResponse {
	reasoning := api.Reasoning
	summaryReason := reasoning
	if summaryReason == "" {
		summaryReason = "No reasoning provided"
	}

	var confidence float64
	if api.Confidence != nil {
		confidence = *api.Confidence
	}

	sources := []string{"subnet_api"}
	resp := &model.MinerResponse{
		Statement:  statement,
		Resolution: model.ParseResolution(api.Resolution),
		Confidence: confidence,
		Summary:    "Official resolution from subnet API: " + summaryReason,
		Reasoning:  reasoning,
		Timestamp:  api.ResolvedAt,
	}

	if ev := api.Evidence; ev != nil {
		if len(ev.Sources) > 0 {
			sources = append([]string(nil), ev.Sources...)
		}
		resp.TargetValue = ev.TargetPrice
		resp.CurrentValue = ev.FinalPrice
	}
	resp.Sources = sources

	resp.Normalize()
	return resp
}
