package model

import "strings"

// ProtocolVersion is reported in every synapse response
const ProtocolVersion = "1.0"

// SynapseRequest is the statement envelope validators send to miners
type SynapseRequest struct {
	Statement    string         `json:"statement" validate:"required,min=10,max=1000"`
	EndDate      string         `json:"end_date" validate:"required"`
	CreatedAt    string         `json:"created_at,omitempty"`
	StatementID  string         `json:"statement_id,omitempty"`
	InitialValue *float64       `json:"initial_value,omitempty"`
	Direction    Direction      `json:"direction,omitempty" validate:"omitempty,oneof=increase decrease neutral"`
	Category     string         `json:"category,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// ToStatement converts the envelope into a Statement
func (r SynapseRequest) ToStatement() Statement {
	return Statement{
		ID:           r.StatementID,
		Statement:    strings.TrimSpace(r.Statement),
		EndDate:      r.EndDate,
		CreatedAt:    r.CreatedAt,
		InitialValue: r.InitialValue,
		Direction:    r.Direction,
		Category:     r.Category,
	}
}

// SynapseResponse is the response envelope returned to validators
type SynapseResponse struct {
	Resolution      Resolution `json:"resolution"`
	Confidence      float64    `json:"confidence"`
	Summary         string     `json:"summary"`
	Sources         []string   `json:"sources"`
	Reasoning       string     `json:"reasoning,omitempty"`
	TargetValue     *float64   `json:"target_value,omitempty"`
	CurrentValue    *float64   `json:"current_value,omitempty"`
	ProofHash       string     `json:"proof_hash"`
	Timestamp       string     `json:"timestamp"`
	MinerUID        *int       `json:"miner_uid,omitempty"`
	AnalysisTime    float64    `json:"analysis_time"` // seconds
	ProtocolVersion string     `json:"protocol_version"`
	MinerVersion    string     `json:"miner_version"`
	RequestID       string     `json:"request_id,omitempty"`
}

// NewSynapseResponse wraps a finished MinerResponse
func NewSynapseResponse(resp *MinerResponse, analysisTime float64, minerVersion string) SynapseResponse {
	return SynapseResponse{
		Resolution:      resp.Resolution,
		Confidence:      resp.Confidence,
		Summary:         resp.Summary,
		Sources:         resp.Sources,
		Reasoning:       resp.Reasoning,
		TargetValue:     resp.TargetValue,
		CurrentValue:    resp.CurrentValue,
		ProofHash:       resp.ProofHash,
		Timestamp:       resp.Timestamp,
		MinerUID:        resp.MinerUID,
		AnalysisTime:    analysisTime,
		ProtocolVersion: ProtocolVersion,
		MinerVersion:    minerVersion,
	}
}

// MinerVersion formats the version string for a strategy
func MinerVersion(strategy string) string {
	return "subnet90-miner-v1.0-" + strategy
}
