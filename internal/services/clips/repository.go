package clips

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clipforge/clipper-api/internal/models"
)

// ErrClipNotFound is returned when no clip matches the lookup
var ErrClipNotFound = errors.New("clip not found")

type repository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed clip repository
func NewRepository(db *gorm.DB) ClipRepository {
	return &repository{db: db}
}

func (r *repository) CreateClips(ctx context.Context, clips []*models.Clip) error {
	if len(clips) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(clips).Error; err != nil {
		return fmt.Errorf("creating clips: %w", err)
	}
	return nil
}

func (r *repository) GetClipByID(ctx context.Context, id uint) (*models.Clip, error) {
	var clip models.Clip
	if err := r.db.WithContext(ctx).First(&clip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClipNotFound
		}
		return nil, fmt.Errorf("getting clip: %w", err)
	}
	return &clip, nil
}

func (r *repository) GetClipByUUID(ctx context.Context, uuid string) (*models.Clip, error) {
	var clip models.Clip
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&clip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClipNotFound
		}
		return nil, fmt.Errorf("getting clip by uuid: %w", err)
	}
	return &clip, nil
}

func (r *repository) ListClipsByProject(ctx context.Context, projectID uint) ([]*models.Clip, error) {
	var clips []*models.Clip
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("start_time ASC").
		Find(&clips).Error
	if err != nil {
		return nil, fmt.Errorf("listing clips: %w", err)
	}
	return clips, nil
}

func (r *repository) UpdateClip(ctx context.Context, clip *models.Clip) error {
	if err := r.db.WithContext(ctx).Save(clip).Error; err != nil {
		return fmt.Errorf("updating clip: %w", err)
	}
	return nil
}

func (r *repository) DeleteClipsByProject(ctx context.Context, projectID uint) error {
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&models.Clip{}).Error
	if err != nil {
		return fmt.Errorf("deleting clips for project %d: %w", projectID, err)
	}
	return nil
}

func (r *repository) DeleteClip(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Clip{}, id)
	if result.Error != nil {
		return fmt.Errorf("deleting clip: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClipNotFound
	}
	return nil
}
