package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/pkg/subtitles"
)

// Per-clip progress checkpoints
const (
	clipProgressCut       = 30
	clipProgressCropped   = 55
	clipProgressSubtitled = 75
	clipProgressThumbnail = 85
	clipProgressUploaded  = 95
)

// processClip renders one clip end to end: cut, crop to portrait, burn
// subtitles, grab a thumbnail, upload. A failure at any step marks only this
// clip failed and is reported as a ClipError.
func (s *Service) processClip(ctx context.Context, project *models.Project, clip *models.Clip, srcPath string, registry *TempRegistry) error {
	clip.Status = models.ClipStatusProcessing
	clip.Progress = 0
	clip.ErrorMessage = ""
	if err := s.clips.UpdateClip(ctx, clip); err != nil {
		return s.failClip(ctx, clip, "start", err)
	}

	cutPath, err := s.renderer.Cut(ctx, srcPath, clip.StartTime, clip.EndTime)
	if err != nil {
		return s.failClip(ctx, clip, "cut", err)
	}
	registry.Track(cutPath)
	s.updateClipProgress(ctx, clip, clipProgressCut)

	croppedPath, err := s.renderer.CropPortrait(ctx, cutPath)
	if err != nil {
		return s.failClip(ctx, clip, "crop", err)
	}
	registry.Track(croppedPath)
	s.updateClipProgress(ctx, clip, clipProgressCropped)

	finalPath := croppedPath
	segment := models.Segment{Start: clip.StartTime, End: clip.EndTime}
	if srt := subtitles.Build(project.Transcript, segment); srt != "" {
		srtPath, err := subtitles.WriteFile(croppedPath, srt)
		if err != nil {
			return s.failClip(ctx, clip, "subtitles", err)
		}
		registry.Track(srtPath)

		burnedPath, err := s.renderer.BurnSubtitles(ctx, croppedPath, srtPath, subtitles.ForceStyle(clip.SubtitleStyle))
		if err != nil {
			return s.failClip(ctx, clip, "subtitles", err)
		}
		registry.Track(burnedPath)
		finalPath = burnedPath
	}
	s.updateClipProgress(ctx, clip, clipProgressSubtitled)

	// Thumbnail from one second in, clamped for very short clips
	thumbAt := 1.0
	if clip.Duration < 2 {
		thumbAt = clip.Duration / 2
	}
	thumbPath, err := s.renderer.Thumbnail(ctx, finalPath, thumbAt)
	if err != nil {
		return s.failClip(ctx, clip, "thumbnail", err)
	}
	registry.Track(thumbPath)
	s.updateClipProgress(ctx, clip, clipProgressThumbnail)

	outputKey := s.objectKey(project.UUID, clip.UUID, "mp4")
	if err := s.objects.Upload(ctx, finalPath, outputKey); err != nil {
		return s.failClip(ctx, clip, "upload", err)
	}
	thumbnailKey := s.objectKey(project.UUID, clip.UUID, "jpg")
	if err := s.objects.Upload(ctx, thumbPath, thumbnailKey); err != nil {
		return s.failClip(ctx, clip, "upload", err)
	}
	s.updateClipProgress(ctx, clip, clipProgressUploaded)

	clip.Status = models.ClipStatusReady
	clip.Progress = 100
	clip.OutputKey = &outputKey
	clip.ThumbnailKey = &thumbnailKey
	if err := s.clips.UpdateClip(ctx, clip); err != nil {
		return s.failClip(ctx, clip, "finalize", err)
	}

	log.Printf("[DEBUG] Clip %s ready (project %s, %.1fs-%.1fs)", clip.UUID, project.UUID, clip.StartTime, clip.EndTime)
	return nil
}

// failClip records the failure on the clip row and wraps it as an isolated
// ClipError
func (s *Service) failClip(ctx context.Context, clip *models.Clip, step string, cause error) error {
	msg := fmt.Sprintf("%s: %v", step, cause)
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	clip.Status = models.ClipStatusFailed
	clip.ErrorMessage = msg

	if err := s.clips.UpdateClip(ctx, clip); err != nil {
		log.Printf("[ERROR] Failed to persist failure for clip %d: %v", clip.ID, err)
	}
	return &ClipError{ClipID: clip.ID, Step: step, Err: cause}
}

func (s *Service) updateClipProgress(ctx context.Context, clip *models.Clip, progress int) {
	clip.Progress = progress
	if err := s.clips.UpdateClip(ctx, clip); err != nil {
		log.Printf("[WARN] Failed to persist progress for clip %d: %v", clip.ID, err)
	}
}

func (s *Service) objectKey(projectUUID, clipUUID, ext string) string {
	if s.cfg.KeyPrefix == "" {
		return fmt.Sprintf("%s/%s.%s", projectUUID, clipUUID, ext)
	}
	return fmt.Sprintf("%s/%s/%s.%s", s.cfg.KeyPrefix, projectUUID, clipUUID, ext)
}
