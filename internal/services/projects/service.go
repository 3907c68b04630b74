// Package projects manages the lifecycle of user-submitted video projects.
package projects

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/internal/services/jobs"
	"github.com/clipforge/clipper-api/internal/services/pipeline"
)

// Limits bounds what a single project may request
type Limits struct {
	MaxClips int
}

type service struct {
	repo       ProjectRepository
	jobService jobs.Service
	objects    pipeline.ObjectStore
	limits     Limits
}

// NewService creates a project service. The object store is used for
// best-effort artifact removal when a project is deleted.
func NewService(repo ProjectRepository, jobService jobs.Service, objects pipeline.ObjectStore, limits Limits) ProjectService {
	if limits.MaxClips <= 0 {
		limits.MaxClips = 10
	}
	return &service{
		repo:       repo,
		jobService: jobService,
		objects:    objects,
		limits:     limits,
	}
}

// CreateProject validates the request, persists the project, and enqueues
// its pipeline run
func (s *service) CreateProject(ctx context.Context, sourceURL string, clipCount int, subtitleStyle models.SubtitleStyle) (*models.Project, error) {
	if err := validateSourceURL(sourceURL); err != nil {
		return nil, err
	}
	if clipCount <= 0 {
		clipCount = 3
	}
	if clipCount > s.limits.MaxClips {
		return nil, fmt.Errorf("clip count %d exceeds the maximum of %d", clipCount, s.limits.MaxClips)
	}
	if subtitleStyle == "" {
		subtitleStyle = models.SubtitleStyleClassic
	}
	if !models.ValidSubtitleStyle(subtitleStyle) {
		return nil, fmt.Errorf("unknown subtitle style %q", subtitleStyle)
	}

	project := &models.Project{
		SourceURL:     sourceURL,
		ClipCount:     clipCount,
		SubtitleStyle: subtitleStyle,
		Stage:         models.StagePending,
	}

	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	if err := s.enqueueRun(ctx, project.ID); err != nil {
		// Without a queued run the project would sit pending forever
		if delErr := s.repo.DeleteProject(ctx, project.ID); delErr != nil {
			log.Printf("[ERROR] Failed to roll back project %s after enqueue failure: %v", project.UUID, delErr)
		}
		return nil, fmt.Errorf("enqueueing pipeline run: %w", err)
	}

	log.Printf("[DEBUG] Created project %s for %s (%d clips)", project.UUID, sourceURL, clipCount)
	return project, nil
}

func (s *service) GetProject(ctx context.Context, uuid string) (*models.Project, error) {
	return s.repo.GetProjectWithClips(ctx, uuid)
}

func (s *service) GetProjectByID(ctx context.Context, id uint) (*models.Project, error) {
	return s.repo.GetProjectByID(ctx, id)
}

func (s *service) ListProjects(ctx context.Context, limit, offset int) ([]*models.Project, int64, error) {
	return s.repo.ListProjects(ctx, limit, offset)
}

func (s *service) UpdateProject(ctx context.Context, project *models.Project) error {
	return s.repo.UpdateProject(ctx, project)
}

// DeleteProject removes the project, its clips, and best-effort its stored
// artifacts. A running project cannot be deleted.
func (s *service) DeleteProject(ctx context.Context, uuid string) error {
	project, err := s.repo.GetProjectWithClips(ctx, uuid)
	if err != nil {
		return err
	}
	if project.IsRunning() {
		return fmt.Errorf("project %s has a run in progress and cannot be deleted", uuid)
	}

	// Object removal failures must not block deletion; orphaned objects
	// age out of the bucket separately.
	for _, clip := range project.Clips {
		for _, key := range []*string{clip.OutputKey, clip.ThumbnailKey} {
			if key == nil {
				continue
			}
			if err := s.objects.Delete(ctx, *key); err != nil {
				log.Printf("[WARN] Failed to delete object %s: %v", *key, err)
			}
		}
	}

	return s.repo.DeleteProject(ctx, project.ID)
}

// RetryProject re-enqueues a failed project's pipeline run
func (s *service) RetryProject(ctx context.Context, uuid string) (*models.Project, error) {
	project, err := s.repo.GetProjectByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if project.Stage != models.StageFailed {
		return nil, fmt.Errorf("project %s is %s; only failed projects can be retried", uuid, project.Stage)
	}

	project.Stage = models.StagePending
	project.Progress = 0
	project.ErrorMessage = ""
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, err
	}

	if err := s.enqueueRun(ctx, project.ID); err != nil {
		return nil, fmt.Errorf("enqueueing retry run: %w", err)
	}
	return project, nil
}

func (s *service) enqueueRun(ctx context.Context, projectID uint) error {
	_, err := s.jobService.EnqueueUniqueJob(ctx, models.JobTypePipelineRun,
		models.JobPayload{"project_id": projectID},
		"project_id",
		jobs.WithCreatedBy("api"))
	return err
}

func validateSourceURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("source URL is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid source URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("source URL must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("source URL is missing a host")
	}
	return nil
}
