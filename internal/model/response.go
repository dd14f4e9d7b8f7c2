package model

import (
	"strings"
	"time"
)

// Resolution is the verdict on a statement
type Resolution string

const (
	ResolutionTrue    Resolution = "TRUE"
	ResolutionFalse   Resolution = "FALSE"
	ResolutionPending Resolution = "PENDING"
)

// ParseResolution maps free-form text onto the closed set.
// Anything unrecognized becomes PENDING.
func ParseResolution(value string) Resolution {
	switch Resolution(strings.ToUpper(strings.TrimSpace(value))) {
	case ResolutionTrue:
		return ResolutionTrue
	case ResolutionFalse:
		return ResolutionFalse
	default:
		return ResolutionPending
	}
}

// Valid reports whether r is one of the three known values
func (r Resolution) Valid() bool {
	return r == ResolutionTrue || r == ResolutionFalse || r == ResolutionPending
}

const (
	// MaxSummaryLength is the cap on summary length in characters
	MaxSummaryLength = 1000

	// MaxSources is the cap on the number of sources kept
	MaxSources = 10

	// TimestampLayout is used for every timestamp the miner generates
	TimestampLayout = "2006-01-02T15:04:05.000000Z"
)

// MinerResponse is the canonical answer for one statement
type MinerResponse struct {
	Statement         string     `json:"statement"`
	Resolution        Resolution `json:"resolution"`
	Confidence        float64    `json:"confidence"` // 0-100
	Summary           string     `json:"summary"`
	Sources           []string   `json:"sources"`
	Reasoning         string     `json:"reasoning"`
	TargetDate        string     `json:"target_date,omitempty"`
	TargetValue       *float64   `json:"target_value,omitempty"`
	CurrentValue      *float64   `json:"current_value,omitempty"`
	DirectionInferred Direction  `json:"direction_inferred,omitempty"`
	ProofHash         string     `json:"proof_hash,omitempty"`
	Timestamp         string     `json:"timestamp"`
	MinerUID          *int       `json:"miner_uid,omitempty"`
}

// NewResponse builds a normalized response for statement
func NewResponse(statement string, resolution Resolution, confidence float64, summary string, sources []string) *MinerResponse {
	r := &MinerResponse{
		Statement:  statement,
		Resolution: resolution,
		Confidence: confidence,
		Summary:    summary,
		Sources:    sources,
	}
	r.Normalize()
	return r
}

// Normalize truncates over-long fields and fills the timestamp.
// It never rejects a response.
func (r *MinerResponse) Normalize() {
	if len(r.Sources) > MaxSources {
		r.Sources = append([]string(nil), r.Sources[:MaxSources]...)
	}
	r.Summary = TruncateSummary(r.Summary)
	if r.Timestamp == "" {
		r.Timestamp = Now()
	}
}

// IsValid reports whether the response meets the minimum requirements
func (r *MinerResponse) IsValid() bool {
	if r == nil {
		return false
	}
	return r.Resolution.Valid() &&
		r.Confidence >= 0 && r.Confidence <= 100 &&
		r.Summary != "" &&
		len(r.Sources) > 0
}

// TruncateSummary caps s at MaxSummaryLength characters, ending in "..." when cut
func TruncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxSummaryLength {
		return s
	}
	return string(runes[:MaxSummaryLength-3]) + "..."
}

// nowFunc is replaced in tests
var nowFunc = time.Now

// Now returns the current UTC time in TimestampLayout
func Now() string {
	return nowFunc().UTC().Format(TimestampLayout)
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
