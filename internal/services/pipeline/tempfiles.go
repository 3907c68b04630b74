package pipeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// TempRegistry tracks the temp files created during one pipeline run so they
// can all be removed when the run ends, regardless of outcome.
type TempRegistry struct {
	mu    sync.Mutex
	dir   string
	paths []string
}

// NewTempRegistry creates a per-run working directory under baseDir
func NewTempRegistry(baseDir, runID string) (*TempRegistry, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating temp directory %s: %w", dir, err)
	}
	return &TempRegistry{dir: dir}, nil
}

// Dir returns the run's working directory
func (r *TempRegistry) Dir() string {
	return r.dir
}

// Track registers a file for removal at cleanup time. Safe for concurrent
// use by clip workers.
func (r *TempRegistry) Track(path string) {
	if path == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Cleanup removes every tracked file and then the run directory itself.
// Individual removal failures are logged and do not stop the sweep.
func (r *TempRegistry) Cleanup() {
	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[WARN] Failed to remove temp file %s: %v", path, err)
		}
	}

	if err := os.RemoveAll(r.dir); err != nil {
		log.Printf("[WARN] Failed to remove temp directory %s: %v", r.dir, err)
	}
}
