package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipper-api/api"
	"github.com/clipforge/clipper-api/api/types"
	"github.com/clipforge/clipper-api/internal/database"
	"github.com/clipforge/clipper-api/internal/services/cache"
	"github.com/clipforge/clipper-api/internal/services/cleanup"
	clipsService "github.com/clipforge/clipper-api/internal/services/clips"
	"github.com/clipforge/clipper-api/internal/services/detect"
	"github.com/clipforge/clipper-api/internal/services/download"
	"github.com/clipforge/clipper-api/internal/services/jobs"
	"github.com/clipforge/clipper-api/internal/services/objectstore"
	"github.com/clipforge/clipper-api/internal/services/pipeline"
	projectsService "github.com/clipforge/clipper-api/internal/services/projects"
	"github.com/clipforge/clipper-api/internal/services/transcribe"
	"github.com/clipforge/clipper-api/internal/services/workers"
	"github.com/clipforge/clipper-api/pkg/config"
	"github.com/clipforge/clipper-api/pkg/media"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the ClipForge API server with the configured settings.

The server accepts project submissions over HTTP, runs the clip pipeline
on background workers, and serves progress updates and finished clips.

Example:
  clipper-api serve
  clipper-api serve --port 9090
  clipper-api serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	db, err := database.InitializeWithMigrations()
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	deps, pool, sweeper, err := buildDependencies(cmd.Context(), cfg, db)
	if err != nil {
		return err
	}

	server := api.NewServer(fmt.Sprintf("%s:%d", serverHost, serverPort))
	server.SetDependencies(deps)
	server.SetRateLimitingEnabled(cfg.RateLimiting.Enabled)
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}

	// The filesystem backend serves uploads straight from the media dir.
	if cfg.ObjectStore.Backend != "s3" {
		server.Engine().Static("/media", cfg.ObjectStore.LocalDir)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if err := pool.Start(workerCtx); err != nil {
		return fmt.Errorf("starting worker pool: %w", err)
	}
	sweeper.Start(workerCtx)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	log.Printf("ClipForge API listening on %s:%d", serverHost, serverPort)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("Shutting down server...")
	case err := <-serverErr:
		log.Printf("%v", err)
		log.Println("Shutting down server...")
	}

	sweeper.Stop()
	stopWorkers()
	pool.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server gracefully stopped")
	return nil
}

// buildDependencies wires the service graph behind the HTTP handlers and
// background workers
func buildDependencies(ctx context.Context, cfg *config.Config, db *database.DB) (*types.Dependencies, *workers.WorkerPool, *cleanup.Service, error) {
	toolkit := media.New(media.Options{
		FFmpegPath:  cfg.Media.FFmpegPath,
		FFprobePath: cfg.Media.FFprobePath,
		Timeout:     cfg.Media.FFmpegTimeout,
	})
	if err := toolkit.ValidateBinaries(); err != nil {
		log.Printf("[WARN] Media binaries unavailable, pipeline runs will fail: %v", err)
	}

	objects, err := buildObjectStore(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	downloader := download.New(download.Config{
		YtdlpPath:        cfg.Media.YtdlpPath,
		Timeout:          cfg.Media.DownloadTimeout,
		MaxSourceSeconds: cfg.Limits.MaxSourceSeconds,
	}, toolkit)

	transcriber := transcribe.New(transcribe.Config{
		APIURL:   cfg.Transcription.APIURL,
		APIKey:   cfg.Transcription.APIKey,
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
		Timeout:  cfg.Transcription.Timeout,
	})

	detector := detect.New(detect.Config{
		APIURL:            cfg.Detection.APIURL,
		APIKey:            cfg.Detection.APIKey,
		Model:             cfg.Detection.Model,
		Temperature:       cfg.Detection.Temperature,
		Timeout:           cfg.Detection.Timeout,
		MinSegmentSeconds: cfg.Pipeline.MinSegmentSeconds,
		MaxSegmentSeconds: cfg.Pipeline.MaxSegmentSeconds,
	})

	projectRepo := projectsService.NewRepository(db.DB)
	clipRepo := clipsService.NewRepository(db.DB)
	jobService := jobs.NewService(jobs.NewRepository(db.DB))
	broadcaster := pipeline.NewBroadcaster()

	pipelineService := pipeline.New(
		projectRepo,
		clipRepo,
		downloader,
		transcriber,
		detector,
		toolkit,
		objects,
		broadcaster,
		pipeline.Config{
			TempDir:           cfg.Storage.TempDir,
			ClipConcurrency:   cfg.Pipeline.ClipConcurrency,
			MaxClips:          cfg.Limits.MaxClips,
			MinSegmentSeconds: cfg.Pipeline.MinSegmentSeconds,
			MaxSegmentSeconds: cfg.Pipeline.MaxSegmentSeconds,
			KeyPrefix:         cfg.ObjectStore.Prefix,
		},
	)

	pool := workers.NewWorkerPool(jobService, cfg.Pipeline.Workers, 5*time.Second)
	pool.RegisterProcessor(workers.NewPipelineProcessor(pipelineService))
	pool.RegisterProcessor(workers.NewRegenerateProcessor(pipelineService))

	sweeper := cleanup.NewService(
		cfg.Storage.TempDir,
		cfg.Storage.MaxTempAge,
		cfg.Storage.CleanupInterval,
		jobService,
		cfg.Storage.JobRetentionDays,
	)

	deps := &types.Dependencies{
		DB:             db,
		ProjectService: projectsService.NewService(projectRepo, jobService, objects, projectsService.Limits{MaxClips: cfg.Limits.MaxClips}),
		ClipService:    clipsService.NewService(clipRepo, jobService, objects),
		JobService:     jobService,
		WorkerPool:     pool,
		Progress:       broadcaster,
	}

	return deps, pool, sweeper, nil
}

// buildObjectStore selects the storage backend and wraps it with the
// signed-URL cache
func buildObjectStore(ctx context.Context, cfg *config.Config) (pipeline.ObjectStore, error) {
	var store pipeline.ObjectStore
	var err error

	switch cfg.ObjectStore.Backend {
	case "s3":
		store, err = objectstore.NewS3Store(ctx, objectstore.S3Config{
			Bucket:       cfg.ObjectStore.Bucket,
			Region:       cfg.ObjectStore.Region,
			SignedURLTTL: cfg.ObjectStore.SignedURLTTL,
		})
	default:
		store, err = objectstore.NewFilesystemStore(cfg.ObjectStore.LocalDir, cfg.ObjectStore.BaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing object store (%s): %w", cfg.ObjectStore.Backend, err)
	}

	urlCache := cache.NewMemoryCache(int64(cfg.ObjectStore.URLCacheMB))
	return objectstore.NewCachedStore(store, urlCache, cfg.ObjectStore.URLCacheTTL), nil
}
