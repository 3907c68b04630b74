package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Toolkit wraps ffmpeg and ffprobe for the clip rendering steps.
// All invocations are bounded by a timeout; cut and crop get extra headroom
// proportional to the clip duration.
type Toolkit struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new media toolkit
func New(opts Options) *Toolkit {
	return &Toolkit{
		ffmpegPath:  opts.FFmpegPath,
		ffprobePath: opts.FFprobePath,
		timeout:     opts.Timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (t *Toolkit) ValidateBinaries() error {
	if _, err := exec.LookPath(t.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, t.ffmpegPath)
	}
	if _, err := exec.LookPath(t.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, t.ffprobePath)
	}
	return nil
}

// Cut extracts [start, end) seconds from src into a new file next to it.
// Re-encodes so the cut is frame-accurate. Overwrites any previous output
// so retried invocations are safe.
func (t *Toolkit) Cut(ctx context.Context, src string, start, end float64) (string, error) {
	out := siblingPath(src, fmt.Sprintf("cut_%s_%s", secondsTag(start), secondsTag(end)))

	args := []string{
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", src,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-y",
		out,
	}

	if err := t.runFFmpeg(ctx, "cut", src, args, end-start); err != nil {
		return "", err
	}
	return out, nil
}

// CropPortrait center-crops src to a 9:16 portrait frame at 1080x1920
func (t *Toolkit) CropPortrait(ctx context.Context, src string) (string, error) {
	out := siblingPath(src, "portrait")

	args := []string{
		"-i", src,
		"-vf", "crop=ih*9/16:ih,scale=1080:1920",
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "copy",
		"-y",
		out,
	}

	if err := t.runFFmpeg(ctx, "crop", src, args, 0); err != nil {
		return "", err
	}
	return out, nil
}

// BurnSubtitles renders the subtitle file into the video frames.
// forceStyle is an ASS force_style string controlling the look.
func (t *Toolkit) BurnSubtitles(ctx context.Context, src, subtitlePath, forceStyle string) (string, error) {
	out := siblingPath(src, "subtitled")

	filter := fmt.Sprintf("subtitles=%s", escapeFilterPath(subtitlePath))
	if forceStyle != "" {
		filter = fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterPath(subtitlePath), forceStyle)
	}

	args := []string{
		"-i", src,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "copy",
		"-y",
		out,
	}

	if err := t.runFFmpeg(ctx, "burn_subtitles", src, args, 0); err != nil {
		return "", err
	}
	return out, nil
}

// Thumbnail grabs a single frame at the given offset as a JPEG
func (t *Toolkit) Thumbnail(ctx context.Context, src string, at float64) (string, error) {
	base := strings.TrimSuffix(src, filepath.Ext(src))
	out := base + "_thumb.jpg"

	args := []string{
		"-ss", formatSeconds(at),
		"-i", src,
		"-frames:v", "1",
		"-q:v", "3",
		"-y",
		out,
	}

	if err := t.runFFmpeg(ctx, "thumbnail", src, args, 0); err != nil {
		return "", err
	}
	return out, nil
}

// runFFmpeg executes ffmpeg with a context deadline.
// clipSeconds, when positive, extends the timeout proportionally so long
// clips do not hit the fixed ceiling.
func (t *Toolkit) runFFmpeg(ctx context.Context, operation, file string, args []string, clipSeconds float64) error {
	timeout := t.timeout
	if clipSeconds > 0 {
		proportional := time.Duration(clipSeconds*2) * time.Second
		if proportional > timeout {
			timeout = proportional
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return NewProcessingError(operation, file, err, truncateStderr(stderr.String()))
	}
	return nil
}

// siblingPath builds an output path next to src with a suffix before the extension
func siblingPath(src, suffix string) string {
	ext := filepath.Ext(src)
	if ext == "" {
		ext = ".mp4"
	}
	base := strings.TrimSuffix(src, filepath.Ext(src))
	return fmt.Sprintf("%s_%s%s", base, suffix, ext)
}

// formatSeconds renders a float second offset for ffmpeg arguments
func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

// secondsTag renders a second offset as a filename-safe tag
func secondsTag(s float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.1f", s), ".", "_")
}

// escapeFilterPath escapes characters that break ffmpeg filter arguments
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, `\`, `\\`)
	path = strings.ReplaceAll(path, `:`, `\:`)
	path = strings.ReplaceAll(path, `'`, `\'`)
	return path
}

// truncateStderr keeps error messages at a storable size
func truncateStderr(s string) string {
	const max = 400
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
