package agent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/subnet-miner/internal/model"
)

var (
	dollarPattern = regexp.MustCompile(`\$([0-9,]+(?:\.[0-9]+)?)`)
	unitPattern   = regexp.MustCompile(`(?i)(\d+(?:,\d+)*(?:\.\d+)?)\s*(?:dollars?|usd|points?)`)
)

// ExtractTargetValue finds the first dollar amount, or a number followed by
// dollars/usd/points, in text
func ExtractTargetValue(text string) *float64 {
	for _, pattern := range []*regexp.Regexp{dollarPattern, unitPattern} {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			return &v
		}
	}
	return nil
}

// parseNumber reads numbers the way LLMs tend to write them: 85, "85",
// "85%", "$100,000"
func parseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimPrefix(s, "$")
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// Comparison is the condition a price statement sets against its target
type Comparison int

const (
	CompareUnknown Comparison = iota
	CompareAtLeast            // "reach", "hit": >=
	CompareAbove              // "above", "exceed": >
	CompareBelow              // "below", "under": <
)

func (c Comparison) String() string {
	switch c {
	case CompareAtLeast:
		return ">="
	case CompareAbove:
		return ">"
	case CompareBelow:
		return "<"
	default:
		return "?"
	}
}

// Holds reports whether value satisfies the comparison against target
func (c Comparison) Holds(value, target float64) bool {
	switch c {
	case CompareAtLeast:
		return value >= target
	case CompareAbove:
		return value > target
	case CompareBelow:
		return value < target
	default:
		return false
	}
}

// Order matters: "fall below" must match before "fall".
var comparisonTerms = []struct {
	terms []string
	cmp   Comparison
}{
	{[]string{"below", "under", "less than", "lower than", "drop to", "fall to", "dip to"}, CompareBelow},
	{[]string{"above", "exceed", "over", "more than", "higher than", "surpass", "break"}, CompareAbove},
	{[]string{"reach", "hit", "at least", "touch", "get to"}, CompareAtLeast},
}

type comparisonPattern struct {
	re  *regexp.Regexp
	cmp Comparison
}

// comparisonPatterns match each term as a whole word, allowing simple
// inflections ("exceeds", "reached") but not "white" for "hit".
var comparisonPatterns = func() []comparisonPattern {
	var out []comparisonPattern
	for _, group := range comparisonTerms {
		for _, term := range group.terms {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `(?:s|es|ed|ing)?\b`)
			out = append(out, comparisonPattern{re: re, cmp: group.cmp})
		}
	}
	return out
}()

// ParseComparison detects the comparison wording in a statement
func ParseComparison(text string) Comparison {
	lower := strings.ToLower(text)
	for _, p := range comparisonPatterns {
		if p.re.MatchString(lower) {
			return p.cmp
		}
	}
	return CompareUnknown
}

// inferDirection maps a comparison onto the movement it predicts
func inferDirection(st model.Statement) model.Direction {
	if st.Direction != "" {
		return st.Direction
	}
	switch ParseComparison(st.Statement) {
	case CompareAtLeast, CompareAbove:
		return model.DirectionIncrease
	case CompareBelow:
		return model.DirectionDecrease
	default:
		return ""
	}
}
