package model

import (
	"strconv"
	"strings"
	"time"
)

// AgentConfig is the loosely-typed key/value map agents read at construction.
// Missing or mistyped keys fall back to the caller's default.
type AgentConfig map[string]any

// String returns the value for key as a string
func (c AgentConfig) String(key, def string) string {
	switch v := c[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case []byte:
		if len(v) > 0 {
			return string(v)
		}
	}
	return def
}

// Float returns the value for key as a float64
func (c AgentConfig) Float(key string, def float64) float64 {
	if f, ok := toFloat(c[key]); ok {
		return f
	}
	return def
}

// Int returns the value for key as an int
func (c AgentConfig) Int(key string, def int) int {
	if f, ok := toFloat(c[key]); ok {
		return int(f)
	}
	return def
}

// Bool returns the value for key as a bool
func (c AgentConfig) Bool(key string, def bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// Duration reads key as a duration. Bare numbers are seconds.
func (c AgentConfig) Duration(key string, def time.Duration) time.Duration {
	switch v := c[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if f, ok := toFloat(c[key]); ok {
		return time.Duration(f * float64(time.Second))
	}
	return def
}

// Range reads key as a [low, high] pair
func (c AgentConfig) Range(key string, def [2]float64) [2]float64 {
	var pair []float64
	switch v := c[key].(type) {
	case [2]float64:
		return orderRange(v)
	case []float64:
		pair = v
	case []int:
		for _, n := range v {
			pair = append(pair, float64(n))
		}
	case []any:
		for _, item := range v {
			f, ok := toFloat(item)
			if !ok {
				return def
			}
			pair = append(pair, f)
		}
	}
	if len(pair) != 2 {
		return def
	}
	return orderRange([2]float64{pair[0], pair[1]})
}

// Clone returns a shallow copy with overrides applied
func (c AgentConfig) Clone(overrides AgentConfig) AgentConfig {
	out := make(AgentConfig, len(c)+len(overrides))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Masked returns a copy safe for display: credential values are hidden
func (c AgentConfig) Masked() AgentConfig {
	out := make(AgentConfig, len(c))
	for k, v := range c {
		if isSecretKey(k) {
			if s, ok := v.(string); ok && s != "" {
				out[k] = MaskSecret(s)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// MaskSecret keeps the last four characters of a credential
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return strings.HasSuffix(key, "_api_key") || strings.HasSuffix(key, "_token") || strings.HasSuffix(key, "_secret")
}

func orderRange(r [2]float64) [2]float64 {
	if r[0] > r[1] {
		r[0], r[1] = r[1], r[0]
	}
	return r
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
