// Package pipeline orchestrates the project run: download, transcribe,
// detect segments, then render and upload each clip.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/clipforge/clipper-api/internal/models"
)

// ErrRunActive is returned when a run is already in flight for the project
var ErrRunActive = errors.New("pipeline run already active for project")

// Stage progress checkpoints. Processing fills the remaining range up to 99
// as clips complete; 100 is reserved for the done stage.
const (
	progressDownloadStart  = 5
	progressDownloadDone   = 25
	progressTranscribeDone = 50
	progressAnalyzeDone    = 65
	progressProcessingCap  = 99
)

const maxErrorMessageLen = 500

// Config carries the tunables for pipeline runs
type Config struct {
	TempDir           string
	ClipConcurrency   int
	MaxClips          int
	MinSegmentSeconds float64
	MaxSegmentSeconds float64
	KeyPrefix         string
}

// Service runs the clip generation pipeline for projects
type Service struct {
	projects    ProjectStore
	clips       ClipStore
	downloader  Downloader
	transcriber Transcriber
	detector    Detector
	renderer    Renderer
	objects     ObjectStore
	progress    ProgressSink
	cfg         Config

	mu     sync.Mutex
	active map[uint]struct{}
}

// New creates a pipeline service
func New(
	projects ProjectStore,
	clips ClipStore,
	downloader Downloader,
	transcriber Transcriber,
	detector Detector,
	renderer Renderer,
	objects ObjectStore,
	progress ProgressSink,
	cfg Config,
) *Service {
	if cfg.ClipConcurrency <= 0 {
		cfg.ClipConcurrency = 2
	}
	return &Service{
		projects:    projects,
		clips:       clips,
		downloader:  downloader,
		transcriber: transcriber,
		detector:    detector,
		renderer:    renderer,
		objects:     objects,
		progress:    progress,
		cfg:         cfg,
	}
}

// Run executes the full pipeline for one project. Concurrent runs for the
// same project are rejected with ErrRunActive; reruns of failed projects
// start over from the beginning.
func (s *Service) Run(ctx context.Context, projectID uint) error {
	if !s.acquire(projectID) {
		return ErrRunActive
	}
	defer s.release(projectID)

	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading project %d: %w", projectID, err)
	}
	if project.Stage == models.StageDone {
		log.Printf("[DEBUG] Project %s already done, skipping run", project.UUID)
		return nil
	}

	registry, err := NewTempRegistry(s.cfg.TempDir, project.UUID)
	if err != nil {
		return s.markFailed(ctx, project, err)
	}
	defer registry.Cleanup()

	// Rerun after failure starts clean
	project.ErrorMessage = ""

	if err := s.runStages(ctx, project, registry); err != nil {
		return s.markFailed(ctx, project, err)
	}
	return nil
}

func (s *Service) runStages(ctx context.Context, project *models.Project, registry *TempRegistry) error {
	// Download
	if err := s.setStage(ctx, project, models.StageDownloading, progressDownloadStart); err != nil {
		return err
	}
	result, err := s.downloader.Download(ctx, project.SourceURL, registry.Dir())
	if err != nil {
		// The executor reports plan limit violations itself; those keep
		// their type so the queue never retries them
		if IsQuotaError(err) {
			return err
		}
		return NewStageError(models.StageDownloading, "download_failed", "could not fetch source video", err)
	}
	registry.Track(result.Path)

	project.SourceFilename = result.Filename
	project.Duration = result.Metadata.Duration
	project.Width = result.Metadata.Width
	project.Height = result.Metadata.Height
	project.SizeBytes = result.Metadata.Size
	if err := s.setStage(ctx, project, models.StageDownloading, progressDownloadDone); err != nil {
		return err
	}

	// Transcribe
	if err := s.setStage(ctx, project, models.StageTranscribing, progressDownloadDone); err != nil {
		return err
	}
	transcript, err := s.transcriber.Transcribe(ctx, result.Path)
	if err != nil {
		return NewStageError(models.StageTranscribing, "transcription_failed", "could not transcribe audio", err)
	}
	if len(transcript.Words) == 0 {
		return NewStageError(models.StageTranscribing, "empty_transcript", "no speech detected in source video", nil)
	}
	project.Transcript = transcript
	if err := s.setStage(ctx, project, models.StageTranscribing, progressTranscribeDone); err != nil {
		return err
	}

	// Analyze
	if err := s.setStage(ctx, project, models.StageAnalyzing, progressTranscribeDone); err != nil {
		return err
	}
	maxClips := project.ClipCount
	if s.cfg.MaxClips > 0 && maxClips > s.cfg.MaxClips {
		maxClips = s.cfg.MaxClips
	}
	segments, err := s.detector.DetectSegments(ctx, transcript, project.Duration, maxClips)
	if err != nil {
		return NewStageError(models.StageAnalyzing, "detection_failed", "could not detect clip segments", err)
	}
	if len(segments) == 0 {
		return NewStageError(models.StageAnalyzing, "no_segments", "no clip-worthy segments found", nil)
	}
	project.Segments = segments
	if err := s.setStage(ctx, project, models.StageAnalyzing, progressAnalyzeDone); err != nil {
		return err
	}

	// A retried run re-detects segments, so clip rows from an earlier
	// attempt are replaced rather than accumulated
	if err := s.resetClips(ctx, project); err != nil {
		return NewStageError(models.StageAnalyzing, "clip_reset_failed", "could not clear clips from a previous attempt", err)
	}

	// Create clip rows before processing so consumers can watch them fill in
	clips := make([]*models.Clip, len(segments))
	for i, seg := range segments {
		clips[i] = &models.Clip{
			ProjectID:     project.ID,
			StartTime:     seg.Start,
			EndTime:       seg.End,
			Title:         seg.Title,
			Score:         seg.Score,
			Reason:        seg.Reason,
			Hook:          seg.Hook,
			SubtitleStyle: project.SubtitleStyle,
			Status:        models.ClipStatusPending,
		}
	}
	if err := s.clips.CreateClips(ctx, clips); err != nil {
		return NewStageError(models.StageAnalyzing, "clip_create_failed", "could not create clip records", err)
	}

	// Process
	if err := s.setStage(ctx, project, models.StageProcessing, progressAnalyzeDone); err != nil {
		return err
	}
	s.processClips(ctx, project, clips, result.Path, registry)

	// The run finishes even when every clip failed; per-clip status tells
	// the caller what happened.
	return s.setStage(ctx, project, models.StageDone, 100)
}

// resetClips removes clip rows left by a previous attempt at this run,
// together with any artifacts they already uploaded. Object removal is best
// effort; orphaned objects age out of the bucket separately.
func (s *Service) resetClips(ctx context.Context, project *models.Project) error {
	existing, err := s.clips.ListClipsByProject(ctx, project.ID)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	log.Printf("[WARN] Project %s has %d clip(s) from a previous attempt, replacing them", project.UUID, len(existing))
	for _, clip := range existing {
		for _, key := range []*string{clip.OutputKey, clip.ThumbnailKey} {
			if key == nil {
				continue
			}
			if err := s.objects.Delete(ctx, *key); err != nil {
				log.Printf("[WARN] Failed to delete object %s: %v", *key, err)
			}
		}
	}
	return s.clips.DeleteClipsByProject(ctx, project.ID)
}

// processClips renders clips with bounded concurrency. Per-clip failures are
// isolated; only the clip's own status records them.
func (s *Service) processClips(ctx context.Context, project *models.Project, clips []*models.Clip, srcPath string, registry *TempRegistry) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	sem := make(chan struct{}, s.cfg.ClipConcurrency)

	for _, clip := range clips {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *models.Clip) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.processClip(ctx, project, c, srcPath, registry); err != nil {
				log.Printf("[WARN] %v", err)
			}

			mu.Lock()
			completed++
			progress := progressAnalyzeDone + (progressProcessingCap-progressAnalyzeDone)*completed/len(clips)
			if err := s.setStage(ctx, project, models.StageProcessing, progress); err != nil {
				log.Printf("[WARN] Failed to persist processing progress for project %s: %v", project.UUID, err)
			}
			mu.Unlock()
		}(clip)
	}

	wg.Wait()
}

// RegenerateClip re-renders a single existing clip using the project's saved
// transcript. The source video is fetched again since run temp files are
// removed when the original run ends.
func (s *Service) RegenerateClip(ctx context.Context, clipID uint) error {
	clip, err := s.clips.GetClipByID(ctx, clipID)
	if err != nil {
		return fmt.Errorf("loading clip %d: %w", clipID, err)
	}

	project, err := s.projects.GetProjectByID(ctx, clip.ProjectID)
	if err != nil {
		return fmt.Errorf("loading project %d: %w", clip.ProjectID, err)
	}
	if project.Transcript == nil {
		return fmt.Errorf("project %s has no transcript, cannot regenerate clip", project.UUID)
	}

	registry, err := NewTempRegistry(s.cfg.TempDir, fmt.Sprintf("%s-regen-%s", project.UUID, clip.UUID))
	if err != nil {
		return err
	}
	defer registry.Cleanup()

	result, err := s.downloader.Download(ctx, project.SourceURL, registry.Dir())
	if err != nil {
		return fmt.Errorf("re-fetching source for clip %d: %w", clipID, err)
	}
	registry.Track(result.Path)

	return s.processClip(ctx, project, clip, result.Path, registry)
}

// setStage persists the project's stage and progress, then notifies
// subscribers. Persistence always happens first so a reconnecting client
// reading the database never sees state older than the last notification.
func (s *Service) setStage(ctx context.Context, project *models.Project, stage models.ProjectStage, progress int) error {
	project.Stage = stage
	project.Progress = progress
	if err := s.projects.UpdateProject(ctx, project); err != nil {
		return fmt.Errorf("persisting stage %s for project %s: %w", stage, project.UUID, err)
	}
	s.notify(project)
	return nil
}

// markFailed moves the project to the failed stage, preserving the progress
// value it had when the failure happened
func (s *Service) markFailed(ctx context.Context, project *models.Project, runErr error) error {
	msg := runErr.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	project.Stage = models.StageFailed
	project.ErrorMessage = msg

	if err := s.projects.UpdateProject(ctx, project); err != nil {
		log.Printf("[ERROR] Failed to persist failure for project %s: %v", project.UUID, err)
	}
	s.notify(project)
	return runErr
}

func (s *Service) notify(project *models.Project) {
	if s.progress == nil {
		return
	}
	s.progress.Publish(ProgressUpdate{
		ProjectUUID: project.UUID,
		Stage:       project.Stage,
		Progress:    project.Progress,
		Error:       project.ErrorMessage,
	})
}

func (s *Service) acquire(projectID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = make(map[uint]struct{})
	}
	if _, ok := s.active[projectID]; ok {
		return false
	}
	s.active[projectID] = struct{}{}
	return true
}

func (s *Service) release(projectID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, projectID)
}
