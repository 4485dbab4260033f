// Package parser recovers structured records from noisy language-model
// output: fenced code blocks, stray control characters, truncated arrays,
// and trailing commas.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	openFenceRegex  = regexp.MustCompile("(?i)^```(?:json)?")
	closeFenceRegex = regexp.MustCompile("```$")
	trailingComma   = regexp.MustCompile(`,\s*([\]}])`)
	arraySpanRegex  = regexp.MustCompile(`\[[\s\S]*\]`)
	objectSpanRegex = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ParseLenient extracts a list of JSON objects from an arbitrary text blob
// claimed to contain a JSON array. It tries progressively more forgiving
// strategies and returns nil when all of them fail; it never panics and
// never returns an error, so callers degrade by skipping the batch.
func ParseLenient(text string) []map[string]any {
	s := stripFences(text)
	s = stripControlChars(s)

	// Direct parse; a bare object is wrapped into a one-element list.
	if records, ok := tryParse(s); ok {
		return records
	}

	// First top-level array span, with trailing commas removed.
	if m := arraySpanRegex.FindString(s); m != "" {
		if records, ok := tryParse(trailingComma.ReplaceAllString(m, "$1")); ok {
			return records
		}
	}

	// First object span, wrapped as a one-element list.
	if m := objectSpanRegex.FindString(s); m != "" {
		if records, ok := tryParse(trailingComma.ReplaceAllString(m, "$1")); ok {
			return records
		}
	}

	// Last resort: strip trailing commas across the whole cleaned text.
	if records, ok := tryParse(trailingComma.ReplaceAllString(s, "$1")); ok {
		return records
	}

	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(openFenceRegex.ReplaceAllString(s, ""))
		s = strings.TrimSpace(closeFenceRegex.ReplaceAllString(s, ""))
	}
	return s
}

// stripControlChars keeps newlines and printable ASCII; the model
// occasionally emits raw control bytes inside string values.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch == '\n' || (ch >= 32 && ch <= 126) {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func tryParse(s string) ([]map[string]any, bool) {
	var asList []map[string]any
	if err := json.Unmarshal([]byte(s), &asList); err == nil {
		return asList, true
	}
	var asObject map[string]any
	if err := json.Unmarshal([]byte(s), &asObject); err == nil {
		return []map[string]any{asObject}, true
	}
	return nil, false
}
