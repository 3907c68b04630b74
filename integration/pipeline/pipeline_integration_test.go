package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/internal/services/clips"
	"github.com/clipforge/clipper-api/internal/services/jobs"
	"github.com/clipforge/clipper-api/internal/services/pipeline"
	"github.com/clipforge/clipper-api/internal/services/projects"
	"github.com/clipforge/clipper-api/internal/services/workers"
	"github.com/clipforge/clipper-api/pkg/media"
)

// PipelineTestSuite wires real repositories, the job queue, and the worker
// pool against fake media tooling so a full run can execute in-process.
type PipelineTestSuite struct {
	t              *testing.T
	db             *gorm.DB
	tempDir        string
	projectService projects.ProjectService
	clipService    clips.ClipService
	jobService     jobs.Service
	broadcaster    *pipeline.Broadcaster
	objects        *recordingObjectStore
	downloader     *stubDownloader
	pool           *workers.WorkerPool
	stopWorkers    context.CancelFunc
}

func setupPipelineSuite(t *testing.T) *PipelineTestSuite {
	tempDir := t.TempDir()

	// A file-backed database keeps all pool connections on the same schema
	db, err := gorm.Open(sqlite.Open(filepath.Join(tempDir, "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.AutoMigrate(&models.Project{}, &models.Clip{}, &models.Job{}))

	jobService := jobs.NewService(jobs.NewRepository(db))
	objects := newRecordingObjectStore()
	projectService := projects.NewService(projects.NewRepository(db), jobService, objects, projects.Limits{MaxClips: 10})
	clipService := clips.NewService(clips.NewRepository(db), jobService, objects)
	broadcaster := pipeline.NewBroadcaster()

	downloader := &stubDownloader{duration: 120, maxSourceSeconds: 3600}
	runner := pipeline.New(
		projects.NewRepository(db),
		clips.NewRepository(db),
		downloader,
		&stubTranscriber{},
		&stubDetector{},
		&stubRenderer{tempDir: tempDir},
		objects,
		broadcaster,
		pipeline.Config{
			TempDir:           filepath.Join(tempDir, "work"),
			ClipConcurrency:   2,
			MaxClips:          10,
			MinSegmentSeconds: 5,
			MaxSegmentSeconds: 120,
			KeyPrefix:         "clips",
		},
	)

	pool := workers.NewWorkerPool(jobService, 2, 25*time.Millisecond)
	pool.RegisterProcessor(workers.NewPipelineProcessor(runner))
	pool.RegisterProcessor(workers.NewRegenerateProcessor(runner))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Start(ctx))

	suite := &PipelineTestSuite{
		t:              t,
		db:             db,
		tempDir:        tempDir,
		projectService: projectService,
		clipService:    clipService,
		jobService:     jobService,
		broadcaster:    broadcaster,
		objects:        objects,
		downloader:     downloader,
		pool:           pool,
		stopWorkers:    cancel,
	}
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})
	return suite
}

// waitForStage polls the project until it reaches the expected stage or the
// timeout expires
func (suite *PipelineTestSuite) waitForStage(uuid string, expected models.ProjectStage, timeout time.Duration) *models.Project {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		project, err := suite.projectService.GetProject(context.Background(), uuid)
		require.NoError(suite.t, err)
		if project.Stage == expected {
			return project
		}
		time.Sleep(25 * time.Millisecond)
	}
	suite.t.Fatalf("project %s never reached stage %s within %s", uuid, expected, timeout)
	return nil
}

// waitForJobStatus polls the project's queue entry until it has the expected
// status
func (suite *PipelineTestSuite) waitForJobStatus(projectID uint, expected models.JobStatus, timeout time.Duration) *models.Job {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		job, err := suite.jobService.GetJobForProject(context.Background(), projectID)
		require.NoError(suite.t, err)
		if job.Status == expected {
			return job
		}
		time.Sleep(25 * time.Millisecond)
	}
	suite.t.Fatalf("job for project %d never reached status %s within %s", projectID, expected, timeout)
	return nil
}

func TestPipelineRunEndToEnd(t *testing.T) {
	suite := setupPipelineSuite(t)
	ctx := context.Background()

	// Create the row first, subscribe, then enqueue, so no progress update
	// can fire before the subscription exists
	project := &models.Project{
		SourceURL:     "https://example.com/talk.mp4",
		ClipCount:     2,
		SubtitleStyle: models.SubtitleStyleBold,
		Stage:         models.StagePending,
	}
	require.NoError(t, projects.NewRepository(suite.db).CreateProject(ctx, project))

	updates, cancel := suite.broadcaster.Subscribe(project.UUID)
	defer cancel()

	_, err := suite.jobService.EnqueueUniqueJob(ctx, models.JobTypePipelineRun,
		models.JobPayload{"project_id": project.ID}, "project_id")
	require.NoError(t, err)

	done := suite.waitForStage(project.UUID, models.StageDone, 10*time.Second)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, float64(120), done.Duration)
	assert.Equal(t, "source.mp4", done.SourceFilename)
	assert.Empty(t, done.ErrorMessage)

	clipList, err := suite.clipService.ListClips(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, clipList, 2)
	for _, clip := range clipList {
		assert.Equal(t, models.ClipStatusReady, clip.Status)
		assert.Equal(t, 100, clip.Progress)
		require.NotNil(t, clip.OutputKey)
		require.NotNil(t, clip.ThumbnailKey)
		assert.True(t, suite.objects.has(*clip.OutputKey), "output %s not uploaded", *clip.OutputKey)
		assert.True(t, suite.objects.has(*clip.ThumbnailKey), "thumbnail %s not uploaded", *clip.ThumbnailKey)
	}

	suite.waitForJobStatus(project.ID, models.JobStatusCompleted, 5*time.Second)

	// At least the terminal stage must have been broadcast
	sawDone := false
	timeout := time.After(2 * time.Second)
	for !sawDone {
		select {
		case update := <-updates:
			if update.Stage == models.StageDone {
				sawDone = true
			}
		case <-timeout:
			t.Fatal("never received a done progress update")
		}
	}
}

func TestPipelineRunQuotaExceeded(t *testing.T) {
	suite := setupPipelineSuite(t)
	ctx := context.Background()

	// Source longer than the configured plan limit
	suite.downloader.duration = 7200

	project, err := suite.projectService.CreateProject(ctx, "https://example.com/marathon.mp4", 2, models.SubtitleStyleClassic)
	require.NoError(t, err)

	failed := suite.waitForStage(project.UUID, models.StageFailed, 10*time.Second)
	assert.Contains(t, failed.ErrorMessage, "max_source_seconds")

	// Quota violations are never retried
	job := suite.waitForJobStatus(project.ID, models.JobStatusPermanentlyFailed, 5*time.Second)
	assert.Equal(t, string(models.ErrorTypeQuota), job.ErrorType)
}

func TestPipelineRunDownloadFailureRetries(t *testing.T) {
	suite := setupPipelineSuite(t)
	ctx := context.Background()

	suite.downloader.err = errors.New("connection reset")

	project, err := suite.projectService.CreateProject(ctx, "https://example.com/flaky.mp4", 1, models.SubtitleStyleClassic)
	require.NoError(t, err)

	suite.waitForStage(project.UUID, models.StageFailed, 10*time.Second)

	// The job record is updated after the project is marked failed
	var job *models.Job
	deadline := time.Now().Add(5 * time.Second)
	for {
		var err error
		job, err = suite.jobService.GetJobForProject(ctx, project.ID)
		require.NoError(t, err)
		if job.ErrorType != "" || time.Now().After(deadline) {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	assert.Equal(t, string(models.ErrorTypeDownload), job.ErrorType)
	assert.NotEqual(t, models.JobStatusCompleted, job.Status, "download failures should not complete the job")
}

func TestClipRegenerateEndToEnd(t *testing.T) {
	suite := setupPipelineSuite(t)
	ctx := context.Background()

	project, err := suite.projectService.CreateProject(ctx, "https://example.com/talk.mp4", 1, models.SubtitleStyleClassic)
	require.NoError(t, err)
	suite.waitForStage(project.UUID, models.StageDone, 10*time.Second)

	clipList, err := suite.clipService.ListClips(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, clipList, 1)
	original := clipList[0]
	originalKey := *original.OutputKey

	_, err = suite.clipService.RegenerateClip(ctx, original.UUID, models.SubtitleStyleKaraoke)
	require.NoError(t, err)

	deadline := time.Now().Add(10 * time.Second)
	for {
		clip, err := suite.clipService.GetClip(ctx, original.UUID)
		require.NoError(t, err)
		if clip.Status == models.ClipStatusReady && clip.SubtitleStyle == models.SubtitleStyleKaraoke {
			require.NotNil(t, clip.OutputKey)
			assert.True(t, suite.objects.has(*clip.OutputKey))
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("clip %s never re-rendered, status %s", original.UUID, clip.Status)
		}
		time.Sleep(25 * time.Millisecond)
	}

	// The previous artifact was replaced, not orphaned
	assert.True(t, suite.objects.has(originalKey) || suite.objects.uploadCount(originalKey) > 1)
}

// --- fakes ---

type recordingObjectStore struct {
	mu      sync.Mutex
	objects map[string]int
}

func newRecordingObjectStore() *recordingObjectStore {
	return &recordingObjectStore{objects: make(map[string]int)}
}

func (s *recordingObjectStore) Upload(ctx context.Context, localPath, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key]++
	return nil
}

func (s *recordingObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *recordingObjectStore) SignedURL(ctx context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (s *recordingObjectStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key] > 0
}

func (s *recordingObjectStore) uploadCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

type stubDownloader struct {
	mu               sync.Mutex
	duration         float64
	maxSourceSeconds float64
	err              error
}

func (d *stubDownloader) Download(ctx context.Context, url, destDir string) (*pipeline.DownloadResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	// Enforces the plan limit the way the real downloader does
	if d.maxSourceSeconds > 0 && d.duration > d.maxSourceSeconds {
		return nil, &pipeline.QuotaError{Limit: "max_source_seconds", Allowed: d.maxSourceSeconds, Actual: d.duration}
	}
	path := filepath.Join(destDir, "source.mp4")
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		return nil, err
	}
	return &pipeline.DownloadResult{
		Path:     path,
		Filename: "source.mp4",
		Metadata: &media.VideoMetadata{Duration: d.duration, Width: 1920, Height: 1080, Size: 5},
	}, nil
}

type stubTranscriber struct{}

func (t *stubTranscriber) Transcribe(ctx context.Context, mediaPath string) (*models.Transcript, error) {
	words := make([]models.TranscriptWord, 0, 120)
	for i := 0; i < 120; i++ {
		words = append(words, models.TranscriptWord{
			Text:       fmt.Sprintf("word%d", i),
			Start:      float64(i),
			End:        float64(i) + 0.8,
			Confidence: 0.99,
		})
	}
	return &models.Transcript{Text: "test transcript", Language: "en", Words: words}, nil
}

type stubDetector struct{}

func (d *stubDetector) DetectSegments(ctx context.Context, transcript *models.Transcript, sourceDuration float64, maxClips int) ([]models.Segment, error) {
	segments := []models.Segment{
		{Start: 5, End: 45, Title: "Opening hook", Score: 92},
		{Start: 60, End: 110, Title: "Key insight", Score: 85},
	}
	if maxClips < len(segments) {
		segments = segments[:maxClips]
	}
	return segments, nil
}

type stubRenderer struct {
	mu      sync.Mutex
	count   int
	tempDir string
}

func (r *stubRenderer) output(ext string) (string, error) {
	r.mu.Lock()
	r.count++
	n := r.count
	r.mu.Unlock()
	path := filepath.Join(r.tempDir, fmt.Sprintf("render-%d.%s", n, ext))
	return path, os.WriteFile(path, []byte("data"), 0644)
}

func (r *stubRenderer) Cut(ctx context.Context, src string, start, end float64) (string, error) {
	return r.output("mp4")
}

func (r *stubRenderer) CropPortrait(ctx context.Context, src string) (string, error) {
	return r.output("mp4")
}

func (r *stubRenderer) BurnSubtitles(ctx context.Context, src, subtitlePath, forceStyle string) (string, error) {
	return r.output("mp4")
}

func (r *stubRenderer) Thumbnail(ctx context.Context, src string, at float64) (string, error) {
	return r.output("jpg")
}
