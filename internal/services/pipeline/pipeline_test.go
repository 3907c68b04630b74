package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/pkg/media"
)

// --- fakes ---

type fakeProjects struct {
	mu          sync.Mutex
	project     *models.Project
	updates     []models.ProjectStage
	failOnStage models.ProjectStage // UpdateProject fails while failures > 0
	failures    int
}

func (f *fakeProjects) GetProjectByID(ctx context.Context, id uint) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.project == nil || f.project.ID != id {
		return nil, errors.New("project not found")
	}
	return f.project, nil
}

func (f *fakeProjects) UpdateProject(ctx context.Context, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 && p.Stage == f.failOnStage {
		f.failures--
		return errors.New("database is locked")
	}
	f.project = p
	f.updates = append(f.updates, p.Stage)
	return nil
}

type fakeClips struct {
	mu     sync.Mutex
	nextID uint
	clips  map[uint]*models.Clip
}

func newFakeClips() *fakeClips {
	return &fakeClips{nextID: 1, clips: make(map[uint]*models.Clip)}
}

func (f *fakeClips) GetClipByID(ctx context.Context, id uint) (*models.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clip, ok := f.clips[id]
	if !ok {
		return nil, errors.New("clip not found")
	}
	return clip, nil
}

func (f *fakeClips) CreateClips(ctx context.Context, clips []*models.Clip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range clips {
		c.ID = f.nextID
		c.UUID = fmt.Sprintf("clip-%d", f.nextID)
		if c.Duration == 0 {
			c.Duration = c.EndTime - c.StartTime
		}
		f.nextID++
		f.clips[c.ID] = c
	}
	return nil
}

func (f *fakeClips) UpdateClip(ctx context.Context, clip *models.Clip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clips[clip.ID] = clip
	return nil
}

func (f *fakeClips) ListClipsByProject(ctx context.Context, projectID uint) ([]*models.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Clip
	for _, c := range f.clips {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClips) DeleteClipsByProject(ctx context.Context, projectID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.clips {
		if c.ProjectID == projectID {
			delete(f.clips, id)
		}
	}
	return nil
}

func (f *fakeClips) all() []*models.Clip {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Clip, 0, len(f.clips))
	for _, c := range f.clips {
		out = append(out, c)
	}
	return out
}

type fakeDownloader struct {
	duration float64
	err      error
	started  chan struct{} // closed on first call when set
	proceed  chan struct{} // blocks the call when set
}

func (f *fakeDownloader) Download(ctx context.Context, url, destDir string) (*DownloadResult, error) {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.proceed != nil {
		<-f.proceed
	}
	if f.err != nil {
		return nil, f.err
	}
	path := filepath.Join(destDir, "source.mp4")
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		return nil, err
	}
	return &DownloadResult{
		Path:     path,
		Filename: "source.mp4",
		Metadata: &media.VideoMetadata{Duration: f.duration, Width: 1920, Height: 1080, Size: 5},
	}, nil
}

type fakeTranscriber struct {
	transcript *models.Transcript
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, mediaPath string) (*models.Transcript, error) {
	return f.transcript, f.err
}

type fakeDetector struct {
	segments []models.Segment
	err      error
}

func (f *fakeDetector) DetectSegments(ctx context.Context, transcript *models.Transcript, sourceDuration float64, maxClips int) ([]models.Segment, error) {
	return f.segments, f.err
}

type fakeRenderer struct {
	mu        sync.Mutex
	failCutAt float64 // fail Cut for the clip starting at this time
}

func (f *fakeRenderer) emit(src, suffix string) (string, error) {
	path := src[:len(src)-len(filepath.Ext(src))] + suffix
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeRenderer) Cut(ctx context.Context, src string, start, end float64) (string, error) {
	f.mu.Lock()
	failAt := f.failCutAt
	f.mu.Unlock()
	if failAt != 0 && start == failAt {
		return "", errors.New("ffmpeg exited with status 1")
	}
	return f.emit(src, fmt.Sprintf("_cut_%d.mp4", int(start)))
}

func (f *fakeRenderer) CropPortrait(ctx context.Context, src string) (string, error) {
	return f.emit(src, "_portrait.mp4")
}

func (f *fakeRenderer) BurnSubtitles(ctx context.Context, src, subtitlePath, forceStyle string) (string, error) {
	return f.emit(src, "_subtitled.mp4")
}

func (f *fakeRenderer) Thumbnail(ctx context.Context, src string, at float64) (string, error) {
	return f.emit(src, "_thumb.jpg")
}

type fakeObjectStore struct {
	mu      sync.Mutex
	uploads []string
}

func (f *fakeObjectStore) Upload(ctx context.Context, localPath, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeObjectStore) SignedURL(ctx context.Context, key string) (string, error) {
	return "https://example.com/" + key, nil
}

func (f *fakeObjectStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

// --- helpers ---

func testTranscript() *models.Transcript {
	words := make([]models.TranscriptWord, 0, 120)
	for i := 0; i < 120; i++ {
		start := float64(i)
		words = append(words, models.TranscriptWord{
			Text:  fmt.Sprintf("word%d", i),
			Start: start,
			End:   start + 0.8,
		})
	}
	return &models.Transcript{Text: "test transcript", Language: "en", Words: words}
}

type testEnv struct {
	projects   *fakeProjects
	clips      *fakeClips
	downloader *fakeDownloader
	detector   *fakeDetector
	objects    *fakeObjectStore
	broadcast  *Broadcaster
	service    *Service
	tempDir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tempDir := t.TempDir()

	env := &testEnv{
		projects: &fakeProjects{project: &models.Project{
			ID:        1,
			UUID:      "proj-1",
			SourceURL: "https://example.com/talk",
			ClipCount: 3,
			Stage:     models.StagePending,
		}},
		clips:      newFakeClips(),
		downloader: &fakeDownloader{duration: 120},
		detector: &fakeDetector{segments: []models.Segment{
			{Start: 10, End: 50, Title: "First", Score: 88},
			{Start: 60, End: 100, Title: "Second", Score: 75},
		}},
		objects:   &fakeObjectStore{},
		broadcast: NewBroadcaster(),
		tempDir:   tempDir,
	}

	env.service = New(
		env.projects,
		env.clips,
		env.downloader,
		&fakeTranscriber{transcript: testTranscript()},
		env.detector,
		&fakeRenderer{},
		env.objects,
		env.broadcast,
		Config{
			TempDir:         tempDir,
			ClipConcurrency: 2,
			MaxClips:        10,
			KeyPrefix:       "clips",
		},
	)
	return env
}

// --- tests ---

func TestRun_HappyPath(t *testing.T) {
	env := newTestEnv(t)

	err := env.service.Run(context.Background(), 1)
	require.NoError(t, err)

	project := env.projects.project
	assert.Equal(t, models.StageDone, project.Stage)
	assert.Equal(t, 100, project.Progress)
	assert.Empty(t, project.ErrorMessage)
	assert.Equal(t, "source.mp4", project.SourceFilename)
	assert.Equal(t, 120.0, project.Duration)
	assert.NotNil(t, project.Transcript)
	assert.Len(t, project.Segments, 2)

	clips := env.clips.all()
	require.Len(t, clips, 2)
	for _, c := range clips {
		assert.Equal(t, models.ClipStatusReady, c.Status)
		assert.Equal(t, 100, c.Progress)
		require.NotNil(t, c.OutputKey)
		require.NotNil(t, c.ThumbnailKey)
		assert.Contains(t, *c.OutputKey, "clips/proj-1/")
	}

	// Two clips, each with output and thumbnail
	assert.Len(t, env.objects.keys(), 4)

	// Stages progressed in pipeline order
	assert.Equal(t, models.StageDownloading, env.projects.updates[0])
	assert.Equal(t, models.StageDone, env.projects.updates[len(env.projects.updates)-1])

	// Run temp directory was removed
	_, err = os.Stat(filepath.Join(env.tempDir, "proj-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_QuotaExceeded(t *testing.T) {
	env := newTestEnv(t)
	env.downloader.err = &QuotaError{Limit: "max_source_seconds", Allowed: 7200, Actual: 9000}

	err := env.service.Run(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))

	project := env.projects.project
	assert.Equal(t, models.StageFailed, project.Stage)
	assert.Contains(t, project.ErrorMessage, "quota exceeded")
	assert.Empty(t, env.clips.all(), "no clips should be created on quota failure")
}

func TestRun_DownloadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.downloader.err = errors.New("yt-dlp exited with status 1")

	err := env.service.Run(context.Background(), 1)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageDownloading, stageErr.Stage)
	assert.Equal(t, models.StageFailed, env.projects.project.Stage)
}

func TestRun_NoSegments(t *testing.T) {
	env := newTestEnv(t)
	env.detector.segments = nil

	err := env.service.Run(context.Background(), 1)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "no_segments", stageErr.Code)
	assert.Equal(t, models.StageFailed, env.projects.project.Stage)
}

func TestRun_RetryReplacesClipsFromFailedAttempt(t *testing.T) {
	env := newTestEnv(t)

	// First attempt dies right after the clip rows are created: persisting
	// the processing transition fails
	env.projects.failOnStage = models.StageProcessing
	env.projects.failures = 1

	err := env.service.Run(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, models.StageFailed, env.projects.project.Stage)
	require.Len(t, env.clips.all(), 2, "first attempt leaves its clip rows behind")

	// The queued retry must not accumulate a second set of rows
	err = env.service.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StageDone, env.projects.project.Stage)

	clips := env.clips.all()
	require.Len(t, clips, 2)
	for _, c := range clips {
		assert.Equal(t, models.ClipStatusReady, c.Status)
	}
}

func TestRun_ClipFailureIsIsolated(t *testing.T) {
	env := newTestEnv(t)
	renderer := &fakeRenderer{failCutAt: 10} // first segment starts at 10
	env.service.renderer = renderer

	err := env.service.Run(context.Background(), 1)
	require.NoError(t, err, "clip failures must not fail the run")

	project := env.projects.project
	assert.Equal(t, models.StageDone, project.Stage)
	assert.Equal(t, 100, project.Progress)

	var ready, failed int
	for _, c := range env.clips.all() {
		switch c.Status {
		case models.ClipStatusReady:
			ready++
		case models.ClipStatusFailed:
			failed++
			assert.Contains(t, c.ErrorMessage, "cut")
			assert.Nil(t, c.OutputKey)
		}
	}
	assert.Equal(t, 1, ready)
	assert.Equal(t, 1, failed)
}

func TestRun_AllClipsFailedStillDone(t *testing.T) {
	env := newTestEnv(t)
	env.detector.segments = []models.Segment{{Start: 10, End: 50, Title: "Only", Score: 88}}
	env.service.renderer = &fakeRenderer{failCutAt: 10}

	err := env.service.Run(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, models.StageDone, env.projects.project.Stage)
	clips := env.clips.all()
	require.Len(t, clips, 1)
	assert.Equal(t, models.ClipStatusFailed, clips[0].Status)
}

func TestRun_ConcurrentRunsRejected(t *testing.T) {
	env := newTestEnv(t)
	started := make(chan struct{})
	proceed := make(chan struct{})
	env.downloader.started = started
	env.downloader.proceed = proceed

	errCh := make(chan error, 1)
	go func() {
		errCh <- env.service.Run(context.Background(), 1)
	}()

	<-started
	err := env.service.Run(context.Background(), 1)
	assert.ErrorIs(t, err, ErrRunActive)

	close(proceed)
	require.NoError(t, <-errCh)

	// Once the first run finishes the project is terminal
	assert.Equal(t, models.StageDone, env.projects.project.Stage)
}

func TestRun_SkipsDoneProject(t *testing.T) {
	env := newTestEnv(t)
	env.projects.project.Stage = models.StageDone

	err := env.service.Run(context.Background(), 1)
	assert.NoError(t, err)
	assert.Empty(t, env.projects.updates, "done project should not be touched")
}

func TestRun_PublishesProgress(t *testing.T) {
	env := newTestEnv(t)
	ch, cancel := env.broadcast.Subscribe("proj-1")
	defer cancel()

	require.NoError(t, env.service.Run(context.Background(), 1))

	var stages []models.ProjectStage
	for {
		select {
		case u := <-ch:
			stages = append(stages, u.Stage)
			if u.Stage == models.StageDone {
				assert.Equal(t, 100, u.Progress)
				assert.Contains(t, stages, models.StageDownloading)
				assert.Contains(t, stages, models.StageTranscribing)
				assert.Contains(t, stages, models.StageAnalyzing)
				assert.Contains(t, stages, models.StageProcessing)
				return
			}
		default:
			t.Fatalf("channel drained before done update, saw %v", stages)
		}
	}
}

func TestRegenerateClip(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.service.Run(context.Background(), 1))

	clips := env.clips.all()
	require.NotEmpty(t, clips)
	clip := clips[0]
	uploadedBefore := len(env.objects.keys())

	err := env.service.RegenerateClip(context.Background(), clip.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ClipStatusReady, clip.Status)
	assert.Greater(t, len(env.objects.keys()), uploadedBefore)
}

func TestRegenerateClip_NoTranscript(t *testing.T) {
	env := newTestEnv(t)
	env.clips.CreateClips(context.Background(), []*models.Clip{
		{ProjectID: 1, StartTime: 10, EndTime: 50},
	})

	err := env.service.RegenerateClip(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transcript")
}

func TestTempRegistry_Cleanup(t *testing.T) {
	base := t.TempDir()
	registry, err := NewTempRegistry(base, "run-1")
	require.NoError(t, err)

	inside := filepath.Join(registry.Dir(), "a.mp4")
	require.NoError(t, os.WriteFile(inside, []byte("x"), 0644))
	outside := filepath.Join(base, "b.srt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	registry.Track(inside)
	registry.Track(outside)
	registry.Track("") // ignored

	registry.Cleanup()

	_, err = os.Stat(inside)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(outside)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(registry.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster()

	ch1, cancel1 := b.Subscribe("p1")
	ch2, cancel2 := b.Subscribe("p1")
	defer cancel2()

	b.Publish(ProgressUpdate{ProjectUUID: "p1", Stage: models.StageDownloading, Progress: 5})

	u := <-ch1
	assert.Equal(t, models.StageDownloading, u.Stage)
	u = <-ch2
	assert.Equal(t, 5, u.Progress)

	// Publishing to a project with no subscribers is a no-op
	b.Publish(ProgressUpdate{ProjectUUID: "p2", Stage: models.StageDone})

	cancel1()
	assert.Equal(t, 1, b.SubscriberCount("p1"))

	// A full subscriber buffer drops updates instead of blocking
	for i := 0; i < subscriberBuffer*2; i++ {
		b.Publish(ProgressUpdate{ProjectUUID: "p1", Progress: i})
	}
	assert.Len(t, ch2, subscriberBuffer)
}
