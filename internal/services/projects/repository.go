package projects

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clipforge/clipper-api/internal/models"
)

// ErrProjectNotFound is returned when no project matches the lookup
var ErrProjectNotFound = errors.New("project not found")

type repository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed project repository
func NewRepository(db *gorm.DB) ProjectRepository {
	return &repository{db: db}
}

func (r *repository) CreateProject(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

func (r *repository) GetProjectByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return &project, nil
}

func (r *repository) GetProjectByUUID(ctx context.Context, uuid string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project by uuid: %w", err)
	}
	return &project, nil
}

func (r *repository) GetProjectWithClips(ctx context.Context, uuid string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Clips", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Where("uuid = ?", uuid).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project with clips: %w", err)
	}
	return &project, nil
}

func (r *repository) ListProjects(ctx context.Context, limit, offset int) ([]*models.Project, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}

	var projects []*models.Project
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("listing projects: %w", err)
	}
	return projects, total, nil
}

func (r *repository) UpdateProject(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

func (r *repository) DeleteProject(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Clip{}).Error; err != nil {
			return fmt.Errorf("deleting project clips: %w", err)
		}
		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return fmt.Errorf("deleting project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		return nil
	})
}
