package detect

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clipforge/clipper-api/internal/models"
)

type segmentsEnvelope struct {
	Segments []models.Segment `json:"segments"`
}

// parseSegments extracts candidate segments from a model response. Models
// wrap JSON in prose or markdown fences often enough that three strategies
// are tried in order: the raw response, a fenced code block, and the
// outermost brace or bracket slice.
func parseSegments(response string) ([]models.Segment, error) {
	trimmed := strings.TrimSpace(response)

	if segments, ok := tryParse(trimmed); ok {
		return segments, nil
	}

	if block := extractFencedBlock(trimmed); block != "" {
		if segments, ok := tryParse(block); ok {
			return segments, nil
		}
	}

	if slice := extractJSONSlice(trimmed); slice != "" {
		if segments, ok := tryParse(slice); ok {
			return segments, nil
		}
	}

	return nil, fmt.Errorf("no parseable JSON in response: %s", truncate(trimmed, 120))
}

// tryParse accepts both the documented envelope and a bare array
func tryParse(s string) ([]models.Segment, bool) {
	var envelope segmentsEnvelope
	if err := json.Unmarshal([]byte(s), &envelope); err == nil && envelope.Segments != nil {
		return envelope.Segments, true
	}

	var bare []models.Segment
	if err := json.Unmarshal([]byte(s), &bare); err == nil {
		return bare, true
	}

	return nil, false
}

// extractFencedBlock returns the contents of the first markdown code fence
func extractFencedBlock(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return ""
	}
	rest := s[start+3:]
	// Skip a language tag like "json" on the fence line
	if newline := strings.IndexByte(rest, '\n'); newline != -1 {
		firstLine := strings.TrimSpace(rest[:newline])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{[") {
			rest = rest[newline+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// extractJSONSlice returns the outermost {...} or [...] span
func extractJSONSlice(s string) string {
	braceStart := strings.IndexByte(s, '{')
	bracketStart := strings.IndexByte(s, '[')

	start := braceStart
	closer := byte('}')
	if start == -1 || (bracketStart != -1 && bracketStart < start) {
		start = bracketStart
		closer = ']'
	}
	if start == -1 {
		return ""
	}

	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
