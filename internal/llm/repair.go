package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSON pulls the JSON payload out of a model response that may wrap
// it in explanatory prose or a fenced code block. Returns "" when nothing
// JSON-shaped is found.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return raw
	}

	if strings.Contains(raw, "```") {
		if fenced := extractFenced(raw); fenced != "" {
			return fenced
		}
	}

	start := strings.IndexAny(raw, "{[")
	if start == -1 {
		return ""
	}

	open := raw[start]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}

	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}

	// Truncated response; return the tail and let repair close it.
	return raw[start:]
}

func extractFenced(raw string) string {
	var inside []string
	inFence := false
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			inside = append(inside, line)
		}
	}
	return strings.TrimSpace(strings.Join(inside, "\n"))
}

// RepairJSON returns a parseable version of raw, fixing the malformations
// models commonly produce: trailing commas, unbalanced braces, and the
// wider set of defects the jsonrepair library handles. The second return
// reports whether any repair was applied.
func RepairJSON(raw string) (string, bool, error) {
	var probe interface{}
	if json.Unmarshal([]byte(raw), &probe) == nil {
		return raw, false, nil
	}

	repaired := trailingCommaPattern.ReplaceAllString(raw, "$1")
	repaired = balanceBrackets(repaired)
	if json.Unmarshal([]byte(repaired), &probe) == nil {
		return repaired, true, nil
	}

	libRepaired, err := jsonrepair.JSONRepair(repaired)
	if err == nil && json.Unmarshal([]byte(libRepaired), &probe) == nil {
		return libRepaired, true, nil
	}

	return raw, true, fmt.Errorf("JSON could not be repaired")
}

// balanceBrackets appends the closing braces/brackets a truncated response
// is missing, in last-opened-first-closed order.
func balanceBrackets(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, '}')
			}
		case '[':
			if !inString {
				stack = append(stack, ']')
			}
		case '}', ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}
