package projects

import (
	"context"
	"log"
	"time"

	"github.com/clipforge/clipper-api/api/types"
	"github.com/clipforge/clipper-api/internal/models"
	clipsService "github.com/clipforge/clipper-api/internal/services/clips"
)

// CreateProjectRequest represents the request to start a new project
// @Description Request body for submitting a source video for clip generation
type CreateProjectRequest struct {
	SourceURL     string `json:"source_url" binding:"required" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ" description:"Public URL of the source video"`
	ClipCount     int    `json:"clip_count" binding:"omitempty,min=1" example:"3" description:"Maximum number of clips to generate"`
	SubtitleStyle string `json:"subtitle_style" example:"classic" description:"Subtitle style: classic, bold, karaoke, or minimal"`
}

// ProjectResponse represents a project in API responses
// @Description Full project state including pipeline progress and generated clips
type ProjectResponse struct {
	UUID          string         `json:"uuid" example:"052f3b9b-cc02-418c-a9ab-8f49534c01c8"`
	SourceURL     string         `json:"source_url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
	Stage         string         `json:"stage" example:"processing" description:"Pipeline stage: pending, downloading, transcribing, analyzing, processing, done, or failed"`
	Progress      int            `json:"progress" example:"72" description:"Overall progress 0-100"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ClipCount     int            `json:"clip_count" example:"3"`
	SubtitleStyle string         `json:"subtitle_style" example:"classic"`
	Duration      float64        `json:"duration,omitempty" description:"Source duration in seconds, set after download"`
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	SizeBytes     int64          `json:"size_bytes,omitempty"`
	Clips         []ClipResponse `json:"clips,omitempty"`
	CreatedAt     string         `json:"created_at" example:"2026-08-29T16:36:45Z"`
	UpdatedAt     string         `json:"updated_at" example:"2026-08-29T16:38:02Z"`
}

// ClipResponse represents a generated clip in API responses
// @Description One generated short-form clip with playback URLs once ready
type ClipResponse struct {
	UUID          string  `json:"uuid" example:"9f1c2a77-1b02-44c8-9a1b-0f49534c01c8"`
	Title         string  `json:"title" example:"The moment everything clicked"`
	StartTime     float64 `json:"start_time" example:"31.2" description:"Segment start in the source video, seconds"`
	EndTime       float64 `json:"end_time" example:"74.8"`
	Duration      float64 `json:"duration" example:"43.6"`
	Score         float64 `json:"score" example:"88" description:"Virality score 0-100"`
	Reason        string  `json:"reason,omitempty"`
	Hook          string  `json:"hook,omitempty"`
	SubtitleStyle string  `json:"subtitle_style" example:"classic"`
	Status        string  `json:"status" example:"ready" description:"Processing status: pending, processing, ready, or failed"`
	Progress      int     `json:"progress" example:"100"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	VideoURL      string  `json:"video_url,omitempty" description:"Signed playback URL, set once the clip is ready"`
	ThumbnailURL  string  `json:"thumbnail_url,omitempty"`
	CreatedAt     string  `json:"created_at" example:"2026-08-29T16:37:12Z"`
	UpdatedAt     string  `json:"updated_at" example:"2026-08-29T16:38:02Z"`
}

// ProjectsResponse for paginated project lists
type ProjectsResponse struct {
	types.BaseResponse
	Projects []ProjectResponse `json:"projects"`
	Count    int               `json:"count"`
	Total    int64             `json:"total"`
	Offset   int               `json:"offset,omitempty"`
}

const timestampLayout = time.RFC3339

// ToProjectResponse converts a project model into its API representation.
// Signed clip URLs are resolved through clipService; failures there degrade
// to responses without URLs rather than failing the request.
func ToProjectResponse(ctx context.Context, project *models.Project, clipService clipsService.ClipService) ProjectResponse {
	resp := ProjectResponse{
		UUID:          project.UUID,
		SourceURL:     project.SourceURL,
		Stage:         string(project.Stage),
		Progress:      project.Progress,
		ErrorMessage:  project.ErrorMessage,
		ClipCount:     project.ClipCount,
		SubtitleStyle: string(project.SubtitleStyle),
		Duration:      project.Duration,
		Width:         project.Width,
		Height:        project.Height,
		SizeBytes:     project.SizeBytes,
		CreatedAt:     project.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:     project.UpdatedAt.UTC().Format(timestampLayout),
	}

	for i := range project.Clips {
		resp.Clips = append(resp.Clips, ToClipResponse(ctx, &project.Clips[i], clipService))
	}

	return resp
}

// ToClipResponse converts a clip model into its API representation
func ToClipResponse(ctx context.Context, clip *models.Clip, clipService clipsService.ClipService) ClipResponse {
	resp := ClipResponse{
		UUID:          clip.UUID,
		Title:         clip.Title,
		StartTime:     clip.StartTime,
		EndTime:       clip.EndTime,
		Duration:      clip.Duration,
		Score:         clip.Score,
		Reason:        clip.Reason,
		Hook:          clip.Hook,
		SubtitleStyle: string(clip.SubtitleStyle),
		Status:        clip.Status,
		Progress:      clip.Progress,
		ErrorMessage:  clip.ErrorMessage,
		CreatedAt:     clip.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:     clip.UpdatedAt.UTC().Format(timestampLayout),
	}

	if clip.IsReady() && clipService != nil {
		videoURL, thumbnailURL, err := clipService.ClipURLs(ctx, clip)
		if err != nil {
			log.Printf("[WARN] Failed to sign URLs for clip %s: %v", clip.UUID, err)
		} else {
			resp.VideoURL = videoURL
			resp.ThumbnailURL = thumbnailURL
		}
	}

	return resp
}
