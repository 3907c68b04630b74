// Package clips serves and manages the generated short-form clips.
package clips

import (
	"context"
	"fmt"
	"log"

	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/internal/services/jobs"
	"github.com/clipforge/clipper-api/internal/services/pipeline"
)

type service struct {
	repo       ClipRepository
	jobService jobs.Service
	objects    pipeline.ObjectStore
}

// NewService creates a clip service
func NewService(repo ClipRepository, jobService jobs.Service, objects pipeline.ObjectStore) ClipService {
	return &service{
		repo:       repo,
		jobService: jobService,
		objects:    objects,
	}
}

func (s *service) GetClip(ctx context.Context, uuid string) (*models.Clip, error) {
	return s.repo.GetClipByUUID(ctx, uuid)
}

func (s *service) ListClips(ctx context.Context, projectID uint) ([]*models.Clip, error) {
	return s.repo.ListClipsByProject(ctx, projectID)
}

// DeleteClip removes the clip row and best-effort its stored artifacts
func (s *service) DeleteClip(ctx context.Context, uuid string) error {
	clip, err := s.repo.GetClipByUUID(ctx, uuid)
	if err != nil {
		return err
	}
	if clip.Status == models.ClipStatusProcessing {
		return fmt.Errorf("clip %s is being generated and cannot be deleted", uuid)
	}

	for _, key := range []*string{clip.OutputKey, clip.ThumbnailKey} {
		if key == nil {
			continue
		}
		if err := s.objects.Delete(ctx, *key); err != nil {
			log.Printf("[WARN] Failed to delete object %s: %v", *key, err)
		}
	}

	return s.repo.DeleteClip(ctx, clip.ID)
}

// RegenerateClip resets the clip and enqueues a re-render, optionally with a
// different subtitle style
func (s *service) RegenerateClip(ctx context.Context, uuid string, style models.SubtitleStyle) (*models.Clip, error) {
	clip, err := s.repo.GetClipByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if clip.Status == models.ClipStatusProcessing {
		return nil, fmt.Errorf("clip %s is already being generated", uuid)
	}

	if style != "" {
		if !models.ValidSubtitleStyle(style) {
			return nil, fmt.Errorf("unknown subtitle style %q", style)
		}
		clip.SubtitleStyle = style
	}

	clip.Status = models.ClipStatusPending
	clip.Progress = 0
	clip.ErrorMessage = ""
	if err := s.repo.UpdateClip(ctx, clip); err != nil {
		return nil, err
	}

	_, err = s.jobService.EnqueueUniqueJob(ctx, models.JobTypeClipRegenerate,
		models.JobPayload{"clip_id": clip.ID},
		"clip_id",
		jobs.WithCreatedBy("api"))
	if err != nil {
		return nil, fmt.Errorf("enqueueing clip regeneration: %w", err)
	}

	log.Printf("[DEBUG] Queued regeneration for clip %s (style %s)", clip.UUID, clip.SubtitleStyle)
	return clip, nil
}

// ClipURLs resolves playback URLs for a ready clip's artifacts
func (s *service) ClipURLs(ctx context.Context, clip *models.Clip) (string, string, error) {
	if !clip.IsReady() || clip.OutputKey == nil {
		return "", "", fmt.Errorf("clip %s has no playable output", clip.UUID)
	}

	videoURL, err := s.objects.SignedURL(ctx, *clip.OutputKey)
	if err != nil {
		return "", "", fmt.Errorf("signing clip URL: %w", err)
	}

	var thumbnailURL string
	if clip.ThumbnailKey != nil {
		thumbnailURL, err = s.objects.SignedURL(ctx, *clip.ThumbnailKey)
		if err != nil {
			log.Printf("[WARN] Failed to sign thumbnail URL for clip %s: %v", clip.UUID, err)
			thumbnailURL = ""
		}
	}

	return videoURL, thumbnailURL, nil
}
