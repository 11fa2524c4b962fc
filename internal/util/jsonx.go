// Package util holds small internal helpers shared across packages without
// committing to public API stability.
package util

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON locates and decodes the JSON object embedded in completion
// text. Completion backends are asked for bare JSON but routinely wrap it in
// Markdown code fences or surrounding prose, so the extraction is tolerant:
// fences are stripped and the outermost brace pair is used when the full text
// is not itself valid JSON.
func ExtractJSON(text string, v any) error {
	candidate := strings.TrimSpace(text)

	candidate = strings.TrimPrefix(candidate, "```json")
	candidate = strings.TrimPrefix(candidate, "```")
	candidate = strings.TrimSuffix(candidate, "```")
	candidate = strings.TrimSpace(candidate)

	if candidate == "" {
		return fmt.Errorf("empty completion text")
	}

	if !gjson.Valid(candidate) {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start == -1 || end == -1 || end <= start {
			return fmt.Errorf("no JSON object found in completion text")
		}
		candidate = candidate[start : end+1]
		if !gjson.Valid(candidate) {
			return fmt.Errorf("completion text is not valid JSON")
		}
	}

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("decoding completion JSON: %w", err)
	}
	return nil
}
