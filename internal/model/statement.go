package model

import (
	"strings"
	"time"
)

// Direction is the expected movement of the value a statement tracks
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	DirectionNeutral  Direction = "neutral"
)

// Statement is a prediction claim received from a validator.
// It is passed by value and never mutated after construction.
type Statement struct {
	ID           string    `json:"id,omitempty"`
	Statement    string    `json:"statement"`
	EndDate      string    `json:"end_date"`  // ISO-8601, e.g. "2024-12-31T23:59:00Z"
	CreatedAt    string    `json:"createdAt"` // ISO-8601
	InitialValue *float64  `json:"initialValue,omitempty"`
	Direction    Direction `json:"direction,omitempty"`
	Category     string    `json:"category,omitempty"`
}

// Deadline parses EndDate. ok is false when it is missing or unparseable.
func (s Statement) Deadline() (time.Time, bool) {
	return ParseTimestamp(s.EndDate)
}

// IsExpired reports whether the deadline is before now.
// An unknown deadline is never expired.
func (s Statement) IsExpired(now time.Time) bool {
	deadline, ok := s.Deadline()
	if !ok {
		return false
	}
	return now.After(deadline)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 timestamps with or without a zone.
// Values without a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
