package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectStage represents the current stage of a project's pipeline run
type ProjectStage string

const (
	StagePending      ProjectStage = "pending"
	StageDownloading  ProjectStage = "downloading"
	StageTranscribing ProjectStage = "transcribing"
	StageAnalyzing    ProjectStage = "analyzing"
	StageProcessing   ProjectStage = "processing"
	StageDone         ProjectStage = "done"
	StageFailed       ProjectStage = "failed"
)

// Project represents one user-submitted video that gets turned into clips
type Project struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Source information
	SourceURL      string `json:"source_url" gorm:"not null;size:1000"`
	SourceFilename string `json:"source_filename,omitempty" gorm:"size:255"` // Set after download

	// Metadata populated after download
	Duration  float64 `json:"duration"` // Duration in seconds
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	SizeBytes int64   `json:"size_bytes"`

	// Requested output
	ClipCount     int           `json:"clip_count" gorm:"not null;default:3"` // Max clips to generate
	SubtitleStyle SubtitleStyle `json:"subtitle_style" gorm:"size:20;default:classic"`

	// Pipeline state
	Stage        ProjectStage `json:"stage" gorm:"default:'pending';size:20;index"`
	Progress     int          `json:"progress" gorm:"default:0"` // 0-100
	ErrorMessage string       `json:"error_message,omitempty" gorm:"size:500"`

	// Stage results
	Transcript *Transcript `json:"transcript,omitempty" gorm:"type:json"`
	Segments   SegmentList `json:"segments,omitempty" gorm:"type:json"`

	// Generated clips (cascade-deleted with the project)
	Clips []Clip `json:"clips,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate generates a UUID and ensures a valid stage before insert
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	if p.Stage == "" {
		p.Stage = StagePending
	}
	if p.SubtitleStyle == "" {
		p.SubtitleStyle = SubtitleStyleClassic
	}
	return nil
}

// TableName returns the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// IsTerminal returns true if the project has reached a terminal stage
func (p *Project) IsTerminal() bool {
	return p.Stage == StageDone || p.Stage == StageFailed
}

// IsRunning returns true if a pipeline run is actively mutating this project
func (p *Project) IsRunning() bool {
	return p.Stage == StageDownloading ||
		p.Stage == StageTranscribing ||
		p.Stage == StageAnalyzing ||
		p.Stage == StageProcessing
}

// ValidStage reports whether s is one of the defined pipeline stages
func ValidStage(s ProjectStage) bool {
	switch s {
	case StagePending, StageDownloading, StageTranscribing,
		StageAnalyzing, StageProcessing, StageDone, StageFailed:
		return true
	}
	return false
}
