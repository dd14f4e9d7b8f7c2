package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ComputeProofHash computes the tamper-evidence digest over the fields validators check:
// SHA-256 of the sorted-key JSON of confidence, resolution, sources, statement and timestamp.
// The encoding matches what validators produce (", " and ": " separators,
// non-ASCII escaped as \uXXXX, floats always carrying a fraction).
func (r *MinerResponse) ComputeProofHash() string {
	var b strings.Builder
	b.WriteString(`{"confidence": `)
	b.WriteString(canonicalFloat(r.Confidence))
	b.WriteString(`, "resolution": `)
	writeCanonicalString(&b, string(r.Resolution))
	b.WriteString(`, "sources": [`)
	for i, src := range r.Sources {
		if i > 0 {
			b.WriteString(", ")
		}
		writeCanonicalString(&b, src)
	}
	b.WriteString(`], "statement": `)
	writeCanonicalString(&b, r.Statement)
	b.WriteString(`, "timestamp": `)
	writeCanonicalString(&b, r.Timestamp)
	b.WriteString("}")

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// EnsureProofHash sets ProofHash if it is empty. An existing hash is kept.
func (r *MinerResponse) EnsureProofHash() {
	if r.ProofHash == "" {
		r.ProofHash = r.ComputeProofHash()
	}
}

// VerifyProofHash reports whether the stored hash matches the current fields
func (r *MinerResponse) VerifyProofHash() bool {
	return r.ProofHash != "" && r.ProofHash == r.ComputeProofHash()
}

func canonicalFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func writeCanonicalString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || (r > 0x7f && r <= 0xffff):
				fmt.Fprintf(b, `\u%04x`, r)
			case r > 0xffff:
				r -= 0x10000
				fmt.Fprintf(b, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
