package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Clip status constants
const (
	ClipStatusPending    = "pending"    // Created after detection, awaiting generation
	ClipStatusProcessing = "processing" // Cut/crop/subtitle/upload in flight
	ClipStatusReady      = "ready"      // Output uploaded and playable
	ClipStatusFailed     = "failed"     // Generation failed; siblings unaffected
)

// SubtitleStyle selects how burned-in subtitles are rendered
type SubtitleStyle string

const (
	SubtitleStyleClassic SubtitleStyle = "classic"
	SubtitleStyleBold    SubtitleStyle = "bold"
	SubtitleStyleKaraoke SubtitleStyle = "karaoke"
	SubtitleStyleMinimal SubtitleStyle = "minimal"
)

// ValidSubtitleStyle reports whether s is a known subtitle style
func ValidSubtitleStyle(s SubtitleStyle) bool {
	switch s {
	case SubtitleStyleClassic, SubtitleStyleBold, SubtitleStyleKaraoke, SubtitleStyleMinimal:
		return true
	}
	return false
}

// Clip represents one generated short-form video derived from a project segment
type Clip struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Owning project
	ProjectID uint     `json:"project_id" gorm:"not null;index"`
	Project   *Project `json:"-" gorm:"foreignKey:ProjectID"`

	// Segment boundaries within the source video (seconds)
	StartTime float64 `json:"start_time" gorm:"not null"`
	EndTime   float64 `json:"end_time" gorm:"not null"`
	Duration  float64 `json:"duration" gorm:"not null"`

	// Detection metadata
	Title  string  `json:"title" gorm:"size:200"`
	Score  float64 `json:"score"` // Virality score 0-100
	Reason string  `json:"reason,omitempty" gorm:"size:500"`
	Hook   string  `json:"hook,omitempty" gorm:"size:300"`

	// Rendering options
	SubtitleStyle SubtitleStyle `json:"subtitle_style" gorm:"size:20;default:classic"`

	// Output references (set only once ready)
	OutputKey    *string `json:"output_key,omitempty" gorm:"size:500"`
	ThumbnailKey *string `json:"thumbnail_key,omitempty" gorm:"size:500"`

	// Processing status
	Status       string `json:"status" gorm:"default:pending;size:20;index"`
	Progress     int    `json:"progress" gorm:"default:0"` // 0-100
	ErrorMessage string `json:"error_message,omitempty" gorm:"size:500"`
}

// BeforeCreate generates a UUID and normalizes derived fields before insert
func (c *Clip) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = ClipStatusPending
	}
	if c.SubtitleStyle == "" {
		c.SubtitleStyle = SubtitleStyleClassic
	}
	if c.Duration == 0 {
		c.Duration = c.EndTime - c.StartTime
	}
	return nil
}

// TableName returns the table name for the Clip model
func (Clip) TableName() string {
	return "clips"
}

// IsReady returns true if the clip finished generating successfully
func (c *Clip) IsReady() bool {
	return c.Status == ClipStatusReady
}

// IsFailed returns true if clip generation failed
func (c *Clip) IsFailed() bool {
	return c.Status == ClipStatusFailed
}
