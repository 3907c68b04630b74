package media

import "time"

// VideoMetadata represents metadata extracted from a video file
type VideoMetadata struct {
	Duration float64 `json:"duration"` // Duration in seconds
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Bitrate  int     `json:"bitrate"`    // Bitrate in bits per second
	Format   string  `json:"format"`     // Container format (mp4, mkv, etc.)
	Codec    string  `json:"codec"`      // Video codec
	FPS      float64 `json:"fps"`        // Average frame rate
	Size     int64   `json:"size"`       // File size in bytes
	HasAudio bool    `json:"has_audio"`  // Whether an audio stream exists
}

// Options configures the media toolkit
type Options struct {
	FFmpegPath  string        // Path to the ffmpeg binary
	FFprobePath string        // Path to the ffprobe binary
	Timeout     time.Duration // Ceiling for any single ffmpeg invocation
}

// DefaultOptions returns sensible defaults for media processing
func DefaultOptions() Options {
	return Options{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     5 * time.Minute,
	}
}
