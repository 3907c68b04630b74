package cleanup

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

// JobPurger removes finished job rows older than a retention window.
type JobPurger interface {
	CleanupOldJobs(ctx context.Context, retentionDays int) (int64, error)
}

// Service periodically removes stale run directories from the temp dir and
// purges old finished jobs. Run directories are normally deleted by the
// pipeline itself; this sweeper catches leftovers from crashed runs.
type Service struct {
	tempDir          string
	maxAge           time.Duration
	interval         time.Duration
	jobs             JobPurger
	jobRetentionDays int
	cancel           context.CancelFunc
}

// NewService creates a cleanup service. jobs may be nil to skip job purging.
func NewService(tempDir string, maxAge, interval time.Duration, jobs JobPurger, jobRetentionDays int) *Service {
	return &Service{
		tempDir:          tempDir,
		maxAge:           maxAge,
		interval:         interval,
		jobs:             jobs,
		jobRetentionDays: jobRetentionDays,
	}
}

// Start begins the periodic sweep. An initial sweep runs immediately.
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.sweep(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-ctx.Done():
				log.Println("[INFO] Cleanup service stopped")
				return
			}
		}
	}()

	log.Printf("[INFO] Cleanup service started (interval: %v, max age: %v)", s.interval, s.maxAge)
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Service) sweep(ctx context.Context) {
	s.sweepTempDir()
	s.purgeJobs(ctx)
}

// sweepTempDir removes top-level entries of the temp dir whose last
// modification is older than maxAge. Each pipeline run works inside its own
// subdirectory, so removing the entry removes everything the run left behind.
func (s *Service) sweepTempDir() {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[ERROR] Cleanup: reading temp dir %s: %v", s.tempDir, err)
		}
		return
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= s.maxAge {
			continue
		}

		path := filepath.Join(s.tempDir, entry.Name())
		log.Printf("[DEBUG] Removing stale temp entry: %s", path)
		if err := os.RemoveAll(path); err != nil {
			log.Printf("[WARN] Failed to remove stale temp entry %s: %v", path, err)
		}
	}
}

func (s *Service) purgeJobs(ctx context.Context) {
	if s.jobs == nil {
		return
	}
	deleted, err := s.jobs.CleanupOldJobs(ctx, s.jobRetentionDays)
	if err != nil {
		log.Printf("[ERROR] Cleanup: purging old jobs: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[INFO] Cleanup: purged %d old jobs", deleted)
	}
}
