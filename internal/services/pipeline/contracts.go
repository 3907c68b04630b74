package pipeline

import (
	"context"

	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/pkg/media"
)

// ProjectStore is the persistence surface the pipeline needs for projects
type ProjectStore interface {
	GetProjectByID(ctx context.Context, id uint) (*models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
}

// ClipStore is the persistence surface the pipeline needs for clips
type ClipStore interface {
	GetClipByID(ctx context.Context, id uint) (*models.Clip, error)
	CreateClips(ctx context.Context, clips []*models.Clip) error
	UpdateClip(ctx context.Context, clip *models.Clip) error
	ListClipsByProject(ctx context.Context, projectID uint) ([]*models.Clip, error)
	DeleteClipsByProject(ctx context.Context, projectID uint) error
}

// DownloadResult describes a fetched source video on local disk
type DownloadResult struct {
	Path     string
	Filename string
	Metadata *media.VideoMetadata
}

// Downloader fetches a source video into destDir
type Downloader interface {
	Download(ctx context.Context, url, destDir string) (*DownloadResult, error)
}

// Transcriber produces a word-level transcript for a local media file
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (*models.Transcript, error)
}

// Detector finds clip-worthy segments in a transcript. Implementations
// return segments already validated and capped at maxClips.
type Detector interface {
	DetectSegments(ctx context.Context, transcript *models.Transcript, sourceDuration float64, maxClips int) ([]models.Segment, error)
}

// Renderer performs the per-clip video operations. media.Toolkit satisfies
// this; tests substitute fakes.
type Renderer interface {
	Cut(ctx context.Context, src string, start, end float64) (string, error)
	CropPortrait(ctx context.Context, src string) (string, error)
	BurnSubtitles(ctx context.Context, src, subtitlePath, forceStyle string) (string, error)
	Thumbnail(ctx context.Context, src string, at float64) (string, error)
}

// ObjectStore persists final clip artifacts
type ObjectStore interface {
	Upload(ctx context.Context, localPath, key string) error
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string) (string, error)
}

// ProgressSink receives stage and progress updates after they are persisted.
// Delivery is best effort; a slow or absent consumer never blocks the run.
type ProgressSink interface {
	Publish(update ProgressUpdate)
}

// ProgressUpdate is one point-in-time snapshot of a project's run state
type ProgressUpdate struct {
	ProjectUUID string              `json:"project_uuid"`
	Stage       models.ProjectStage `json:"stage"`
	Progress    int                 `json:"progress"`
	Error       string              `json:"error,omitempty"`
}
