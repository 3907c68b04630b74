package projects

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/internal/services/jobs"
)

type fakeObjects struct {
	deleted []string
}

func (f *fakeObjects) Upload(ctx context.Context, localPath, key string) error { return nil }

func (f *fakeObjects) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) SignedURL(ctx context.Context, key string) (string, error) {
	return "/media/" + key, nil
}

func setup(t *testing.T) (ProjectService, jobs.Service, *fakeObjects, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Project{}, &models.Clip{}, &models.Job{}))

	jobService := jobs.NewService(jobs.NewRepository(db))
	objects := &fakeObjects{}
	svc := NewService(NewRepository(db), jobService, objects, Limits{MaxClips: 10})
	return svc, jobService, objects, db
}

func TestCreateProject(t *testing.T) {
	svc, jobService, _, _ := setup(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, "https://youtube.com/watch?v=abc", 5, models.SubtitleStyleBold)
	require.NoError(t, err)

	assert.NotEmpty(t, project.UUID)
	assert.Equal(t, models.StagePending, project.Stage)
	assert.Equal(t, 5, project.ClipCount)
	assert.Equal(t, models.SubtitleStyleBold, project.SubtitleStyle)

	// A pipeline run job was enqueued for the project
	job, err := jobService.GetJobForProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobTypePipelineRun, job.Type)
	assert.Equal(t, models.JobStatusPending, job.Status)
}

func TestCreateProject_Defaults(t *testing.T) {
	svc, _, _, _ := setup(t)

	project, err := svc.CreateProject(context.Background(), "https://example.com/v", 0, "")
	require.NoError(t, err)
	assert.Equal(t, 3, project.ClipCount)
	assert.Equal(t, models.SubtitleStyleClassic, project.SubtitleStyle)
}

func TestCreateProject_Validation(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		url       string
		clipCount int
		style     models.SubtitleStyle
		wantErr   string
	}{
		{"empty url", "", 3, "", "source URL is required"},
		{"bad scheme", "ftp://example.com/v", 3, "", "http or https"},
		{"no host", "https://", 3, "", "missing a host"},
		{"too many clips", "https://example.com/v", 11, "", "exceeds the maximum"},
		{"bad style", "https://example.com/v", 3, "comic-sans", "unknown subtitle style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProject(ctx, tt.url, tt.clipCount, tt.style)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateProject_DuplicateRunNotEnqueued(t *testing.T) {
	svc, jobService, _, db := setup(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, "https://example.com/v", 3, "")
	require.NoError(t, err)

	// Re-enqueueing through retry while the first job is live reuses it
	require.NoError(t, db.Model(&models.Project{}).Where("id = ?", project.ID).Update("stage", models.StageFailed).Error)
	_, err = svc.RetryProject(ctx, project.UUID)
	require.NoError(t, err)

	var count int64
	db.Model(&models.Job{}).Where("type = ?", models.JobTypePipelineRun).Count(&count)
	assert.Equal(t, int64(1), count)

	job, err := jobService.GetJobForProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
}

func TestGetProject_WithClips(t *testing.T) {
	svc, _, _, db := setup(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, "https://example.com/v", 3, "")
	require.NoError(t, err)

	clips := []*models.Clip{
		{ProjectID: project.ID, StartTime: 60, EndTime: 100, Title: "second"},
		{ProjectID: project.ID, StartTime: 10, EndTime: 50, Title: "first"},
	}
	for _, c := range clips {
		require.NoError(t, db.Create(c).Error)
	}

	loaded, err := svc.GetProject(ctx, project.UUID)
	require.NoError(t, err)
	require.Len(t, loaded.Clips, 2)
	// Clips come back in timeline order
	assert.Equal(t, "first", loaded.Clips[0].Title)
	assert.Equal(t, "second", loaded.Clips[1].Title)
}

func TestGetProject_NotFound(t *testing.T) {
	svc, _, _, _ := setup(t)

	_, err := svc.GetProject(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestListProjects(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateProject(ctx, "https://example.com/v", 3, "")
		require.NoError(t, err)
	}

	projects, total, err := svc.ListProjects(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, projects, 2)

	rest, _, err := svc.ListProjects(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestDeleteProject(t *testing.T) {
	svc, _, objects, db := setup(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, "https://example.com/v", 3, "")
	require.NoError(t, err)

	outputKey := "clips/p/c.mp4"
	thumbKey := "clips/p/c.jpg"
	clip := &models.Clip{
		ProjectID:    project.ID,
		StartTime:    10,
		EndTime:      50,
		Status:       models.ClipStatusReady,
		OutputKey:    &outputKey,
		ThumbnailKey: &thumbKey,
	}
	require.NoError(t, db.Create(clip).Error)
	require.NoError(t, db.Model(&models.Project{}).Where("id = ?", project.ID).Update("stage", models.StageDone).Error)

	require.NoError(t, svc.DeleteProject(ctx, project.UUID))

	// Stored artifacts were removed along with the rows
	assert.ElementsMatch(t, []string{outputKey, thumbKey}, objects.deleted)

	var clipCount int64
	db.Model(&models.Clip{}).Where("project_id = ?", project.ID).Count(&clipCount)
	assert.Equal(t, int64(0), clipCount)

	_, err = svc.GetProject(ctx, project.UUID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestDeleteProject_RunningRejected(t *testing.T) {
	svc, _, _, db := setup(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, "https://example.com/v", 3, "")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Project{}).Where("id = ?", project.ID).Update("stage", models.StageProcessing).Error)

	err = svc.DeleteProject(ctx, project.UUID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run in progress")
}

func TestRetryProject(t *testing.T) {
	svc, _, _, db := setup(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, "https://example.com/v", 3, "")
	require.NoError(t, err)

	// Only failed projects can be retried
	_, err = svc.RetryProject(ctx, project.UUID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only failed projects")

	require.NoError(t, db.Model(&models.Project{}).Where("id = ?", project.ID).
		Updates(map[string]interface{}{"stage": models.StageFailed, "error_message": "boom", "progress": 40}).Error)

	retried, err := svc.RetryProject(ctx, project.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.StagePending, retried.Stage)
	assert.Equal(t, 0, retried.Progress)
	assert.Empty(t, retried.ErrorMessage)
}
