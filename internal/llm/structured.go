package llm

import (
	"encoding/json"
	"strings"
)

// StripFences removes a surrounding markdown code fence such as ```json ... ```
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// drop the language tag on the opening line
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		if tag := strings.TrimSpace(s[:idx]); !strings.ContainsAny(tag, "{[") {
			s = s[idx+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseObject decodes a JSON object from a completion
func parseObject(text string) (map[string]any, bool) {
	var data map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &data); err != nil {
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return data, true
}

// finish turns raw completion text into a Result for the requested format
func finish(name, text string, format Format, stripFences bool) Result {
	text = strings.TrimSpace(text)
	if format != FormatJSON {
		return Result{Text: text}
	}

	candidate := text
	if stripFences {
		candidate = StripFences(text)
	}
	data, ok := parseObject(candidate)
	if !ok {
		return Result{Text: text, Err: "invalid JSON response from " + name}
	}
	return Result{Text: text, Data: data}
}
