package clips

import (
	"context"

	"github.com/clipforge/clipper-api/internal/models"
)

// ClipRepository defines the persistence interface for clips. It also
// satisfies the pipeline's clip store contract.
type ClipRepository interface {
	CreateClips(ctx context.Context, clips []*models.Clip) error
	GetClipByID(ctx context.Context, id uint) (*models.Clip, error)
	GetClipByUUID(ctx context.Context, uuid string) (*models.Clip, error)
	ListClipsByProject(ctx context.Context, projectID uint) ([]*models.Clip, error)
	UpdateClip(ctx context.Context, clip *models.Clip) error
	DeleteClip(ctx context.Context, id uint) error
	DeleteClipsByProject(ctx context.Context, projectID uint) error
}

// ClipService defines the business operations on clips
type ClipService interface {
	GetClip(ctx context.Context, uuid string) (*models.Clip, error)
	ListClips(ctx context.Context, projectID uint) ([]*models.Clip, error)
	DeleteClip(ctx context.Context, uuid string) error
	RegenerateClip(ctx context.Context, uuid string, style models.SubtitleStyle) (*models.Clip, error)
	ClipURLs(ctx context.Context, clip *models.Clip) (videoURL, thumbnailURL string, err error)
}
