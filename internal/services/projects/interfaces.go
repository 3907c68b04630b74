package projects

import (
	"context"

	"github.com/clipforge/clipper-api/internal/models"
)

// ProjectRepository defines the persistence interface for projects
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProjectByID(ctx context.Context, id uint) (*models.Project, error)
	GetProjectByUUID(ctx context.Context, uuid string) (*models.Project, error)
	GetProjectWithClips(ctx context.Context, uuid string) (*models.Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]*models.Project, int64, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id uint) error
}

// ProjectService defines the business operations on projects
type ProjectService interface {
	CreateProject(ctx context.Context, sourceURL string, clipCount int, subtitleStyle models.SubtitleStyle) (*models.Project, error)
	GetProject(ctx context.Context, uuid string) (*models.Project, error)
	GetProjectByID(ctx context.Context, id uint) (*models.Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]*models.Project, int64, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, uuid string) error
	RetryProject(ctx context.Context, uuid string) (*models.Project, error)
}
