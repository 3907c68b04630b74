package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// TranscriptWord is a single transcribed word with timing and confidence
type TranscriptWord struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Transcript is the word-level transcription of a project's source video.
// Stored as a JSON column on the project row.
type Transcript struct {
	Text     string           `json:"text"`
	Language string           `json:"language,omitempty"`
	Words    []TranscriptWord `json:"words"`
}

// WordsBetween returns the words whose midpoint falls within [start, end)
func (t *Transcript) WordsBetween(start, end float64) []TranscriptWord {
	var out []TranscriptWord
	for _, w := range t.Words {
		mid := (w.Start + w.End) / 2
		if mid >= start && mid < end {
			out = append(out, w)
		}
	}
	return out
}

// MeanConfidence returns the average word confidence, or 0 for an empty transcript
func (t *Transcript) MeanConfidence() float64 {
	if len(t.Words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range t.Words {
		sum += w.Confidence
	}
	return sum / float64(len(t.Words))
}

// Value implements driver.Valuer for storing Transcript as JSON
func (t *Transcript) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for loading Transcript from JSON
func (t *Transcript) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, isStr := value.(string); isStr {
			bytes = []byte(s)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}

	return json.Unmarshal(bytes, t)
}
