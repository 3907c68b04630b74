package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Media         MediaConfig         `mapstructure:"media"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Detection     DetectionConfig     `mapstructure:"detection"`
	Limits        LimitsConfig        `mapstructure:"limits"`
	ObjectStore   ObjectStoreConfig   `mapstructure:"objectstore"`
	Storage       StorageConfig       `mapstructure:"storage"`
	RateLimiting  RateLimitConfig     `mapstructure:"rate_limiting"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// PipelineConfig contains pipeline execution settings
type PipelineConfig struct {
	Workers           int           `mapstructure:"workers"`
	ClipConcurrency   int           `mapstructure:"clip_concurrency"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	MinClipSeconds    float64       `mapstructure:"min_clip_seconds"`
	MaxClipSeconds    float64       `mapstructure:"max_clip_seconds"`
	MinSegmentSeconds float64       `mapstructure:"min_segment_seconds"`
	MaxSegmentSeconds float64       `mapstructure:"max_segment_seconds"`
}

// MediaConfig contains external media tooling settings
type MediaConfig struct {
	FFmpegPath      string        `mapstructure:"ffmpeg_path"`
	FFprobePath     string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout   time.Duration `mapstructure:"ffmpeg_timeout"`
	YtdlpPath       string        `mapstructure:"ytdlp_path"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
}

// TranscriptionConfig contains transcription API settings
type TranscriptionConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	APIURL   string        `mapstructure:"api_url"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DetectionConfig contains segment detection (LLM) API settings
type DetectionConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	APIURL      string        `mapstructure:"api_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LimitsConfig contains plan limit settings
type LimitsConfig struct {
	MaxSourceSeconds float64 `mapstructure:"max_source_seconds"`
	MaxClips         int     `mapstructure:"max_clips"`
}

// ObjectStoreConfig contains object storage settings
type ObjectStoreConfig struct {
	Backend      string        `mapstructure:"backend"` // "s3" or "filesystem"
	Bucket       string        `mapstructure:"bucket"`
	Prefix       string        `mapstructure:"prefix"`
	Region       string        `mapstructure:"region"`
	LocalDir     string        `mapstructure:"local_dir"`
	BaseURL      string        `mapstructure:"base_url"` // Public URL serving local_dir (filesystem backend)
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
	URLCacheTTL  time.Duration `mapstructure:"url_cache_ttl"`
	URLCacheMB   int           `mapstructure:"url_cache_mb"`
}

// StorageConfig contains local scratch storage settings
type StorageConfig struct {
	TempDir          string        `mapstructure:"temp_dir"`
	MaxTempAge       time.Duration `mapstructure:"max_temp_age"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
	JobRetentionDays int           `mapstructure:"job_retention_days"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
