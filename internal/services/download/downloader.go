// Package download fetches source videos with yt-dlp and probes their
// metadata before the pipeline takes over.
package download

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/clipper-api/internal/services/pipeline"
	"github.com/clipforge/clipper-api/pkg/media"
)

const outputBasename = "source.mp4"

// Config holds the downloader settings
type Config struct {
	YtdlpPath string
	Timeout   time.Duration

	// MaxSourceSeconds is the plan limit on source duration. Zero disables
	// the check.
	MaxSourceSeconds float64
}

// Service downloads source videos into a destination directory
type Service struct {
	cfg     Config
	toolkit *media.Toolkit
}

// New creates a download service. The toolkit probes the fetched file for
// duration and dimensions.
func New(cfg Config, toolkit *media.Toolkit) *Service {
	if cfg.YtdlpPath == "" {
		cfg.YtdlpPath = "yt-dlp"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &Service{cfg: cfg, toolkit: toolkit}
}

// Download fetches the video at url into destDir as an mp4 and returns its
// local path and probed metadata
func (s *Service) Download(ctx context.Context, url, destDir string) (*pipeline.DownloadResult, error) {
	outputPath := filepath.Join(destDir, outputBasename)

	args := []string{
		"-f", "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/b",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--no-progress",
		"-o", outputPath,
		url,
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	log.Printf("[DEBUG] Downloading %s to %s", url, outputPath)

	cmd := exec.CommandContext(ctx, s.cfg.YtdlpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classifyError(url, err, stderr.String())
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("downloaded file missing at %s: %w", outputPath, err)
	}

	metadata, err := s.toolkit.Probe(ctx, outputPath)
	if err != nil {
		return nil, fmt.Errorf("probing downloaded file: %w", err)
	}
	metadata.Size = info.Size()

	if err := s.checkDuration(metadata.Duration); err != nil {
		return nil, err
	}

	return &pipeline.DownloadResult{
		Path:     outputPath,
		Filename: outputBasename,
		Metadata: metadata,
	}, nil
}

// checkDuration enforces the plan limit on source duration before the
// download is reported as successful
func (s *Service) checkDuration(duration float64) error {
	if s.cfg.MaxSourceSeconds > 0 && duration > s.cfg.MaxSourceSeconds {
		return &pipeline.QuotaError{
			Limit:   "max_source_seconds",
			Allowed: s.cfg.MaxSourceSeconds,
			Actual:  duration,
		}
	}
	return nil
}

// classifyError maps common yt-dlp failures onto readable messages,
// keeping a truncated stderr tail for diagnosis
func classifyError(url string, err error, stderr string) error {
	tail := stderr
	if len(tail) > 400 {
		tail = tail[len(tail)-400:]
	}
	tail = strings.TrimSpace(tail)

	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "404"):
		return fmt.Errorf("video not found at %s: %s", url, tail)
	case strings.Contains(lower, "private video"),
		strings.Contains(lower, "sign in"):
		return fmt.Errorf("video at %s is not publicly accessible: %s", url, tail)
	case strings.Contains(lower, "unsupported url"):
		return fmt.Errorf("unsupported video URL %s", url)
	default:
		return fmt.Errorf("yt-dlp failed for %s: %w: %s", url, err, tail)
	}
}
