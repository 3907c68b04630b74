package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Segment is a scored time-range candidate identified by detection,
// destined to become a Clip
type Segment struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"` // 0-100
	Reason string  `json:"reason,omitempty"`
	Hook   string  `json:"hook,omitempty"`
}

// Duration returns the segment length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Overlaps reports whether two segments share any part of the timeline
func (s Segment) Overlaps(other Segment) bool {
	return s.Start < other.End && other.Start < s.End
}

// Validate checks segment invariants against the source duration and the
// configured clip length bounds (seconds)
func (s Segment) Validate(sourceDuration, minLen, maxLen float64) error {
	if s.Start < 0 {
		return fmt.Errorf("segment start %.2f is negative", s.Start)
	}
	if s.End <= s.Start {
		return fmt.Errorf("segment end %.2f must be greater than start %.2f", s.End, s.Start)
	}
	if sourceDuration > 0 && s.End > sourceDuration {
		return fmt.Errorf("segment end %.2f exceeds source duration %.2f", s.End, sourceDuration)
	}
	if d := s.Duration(); d < minLen || d > maxLen {
		return fmt.Errorf("segment duration %.2fs outside allowed range [%.0fs, %.0fs]", d, minLen, maxLen)
	}
	if s.Score < 0 || s.Score > 100 {
		return fmt.Errorf("segment score %.1f outside range [0, 100]", s.Score)
	}
	return nil
}

// SegmentList is stored as a JSON column on the project row
type SegmentList []Segment

// Value implements driver.Valuer for SegmentList
func (l SegmentList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for SegmentList
func (l *SegmentList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
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

	return json.Unmarshal(bytes, l)
}
