package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseJSONResponse extracts and decodes a JSON payload from generation
// service output. The service is asked for JSON but may wrap it in markdown
// code fences or prepend prose; a parse failure here is reported as an
// error for the caller to resolve to its fallback.
func parseJSONResponse(content string, out interface{}) error {
	content = extractJSON(content)
	if content == "" {
		return fmt.Errorf("empty response content")
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if idx := strings.Index(content, "{"); idx > 0 {
		// Prose before the payload; start at the first brace
		content = content[idx:]
	}

	return strings.TrimSpace(content)
}

// clampFloat bounds v into [min, max].
func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clampInt bounds v into [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
