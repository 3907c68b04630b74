package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/clipforge/clipper-api/pkg/errors"
)

var (
	once        sync.Once
	initErr     error
	initialized bool
)

// Init initializes the configuration system.
// This should be called once at application startup.
func Init() error {
	once.Do(func() {
		setDefaults()

		// Environment variable overrides, e.g. CLIPFORGE_SERVER_PORT=9090
		viper.SetEnvPrefix("CLIPFORGE")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			// Missing config file is fine - defaults and env vars apply
			if !os.IsNotExist(err) {
				initErr = apperrors.Wrapf(err, apperrors.ErrCodeConfigNotFound, "error reading config file %s", configPath)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "invalid configuration")
			return
		}

		initialized = true
	})

	return initErr
}

// IsInitialized reports whether Init has completed successfully
func IsInitialized() bool {
	return initialized
}

// GetConfig returns the current configuration as a struct.
// Init() must be called before using this.
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "error unmarshaling config")
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetString("database.path") == "" {
		fmt.Println("Warning: No database path configured")
	}

	if err := validateAPIKeys(); err != nil {
		return err
	}

	// Auto-correct invalid worker count
	if viper.GetInt("pipeline.workers") <= 0 {
		viper.Set("pipeline.workers", 2)
	}

	// Auto-correct invalid clip concurrency
	if viper.GetInt("pipeline.clip_concurrency") <= 0 {
		viper.Set("pipeline.clip_concurrency", 2)
	}

	if viper.GetInt("limits.max_clips") <= 0 {
		viper.Set("limits.max_clips", 10)
	}

	return nil
}

// validateAPIKeys rejects placeholder credentials in production
func validateAPIKeys() error {
	env := viper.GetString("environment")
	isProduction := env == "production" || env == "prod"

	placeholders := []string{
		"YOUR_KEY_HERE",
		"YOUR_API_KEY",
		"changeme",
		"CHANGEME",
		"",
	}

	transcribeKey := viper.GetString("transcription.api_key")
	for _, placeholder := range placeholders {
		if transcribeKey == placeholder {
			if isProduction {
				return fmt.Errorf("invalid transcription API key: cannot use placeholder values in production")
			}
			fmt.Println("Warning: transcription API key is using a placeholder value")
			break
		}
	}

	detectKey := viper.GetString("detection.api_key")
	for _, placeholder := range placeholders {
		if detectKey == placeholder {
			if isProduction {
				return fmt.Errorf("invalid detection API key: cannot use placeholder values in production")
			}
			fmt.Println("Warning: detection API key is using a placeholder value")
			break
		}
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 2
	}

	if c.Pipeline.ClipConcurrency <= 0 {
		c.Pipeline.ClipConcurrency = 2
	}

	if c.Limits.MaxClips <= 0 {
		c.Limits.MaxClips = 10
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database defaults
	viper.SetDefault("database.path", "./data/clipforge.db")
	viper.SetDefault("database.verbose", false)

	// Pipeline defaults
	viper.SetDefault("pipeline.workers", 2)
	viper.SetDefault("pipeline.clip_concurrency", 2)
	viper.SetDefault("pipeline.retry_attempts", 3)
	viper.SetDefault("pipeline.retry_delay", 5*time.Second)
	viper.SetDefault("pipeline.min_clip_seconds", 10.0)
	viper.SetDefault("pipeline.max_clip_seconds", 120.0)
	viper.SetDefault("pipeline.min_segment_seconds", 30.0)
	viper.SetDefault("pipeline.max_segment_seconds", 90.0)

	// Media tooling defaults
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.ffprobe_path", "ffprobe")
	viper.SetDefault("media.ffmpeg_timeout", 5*time.Minute)
	viper.SetDefault("media.ytdlp_path", "yt-dlp")
	viper.SetDefault("media.download_timeout", 10*time.Minute)

	// Transcription defaults (Deepgram-compatible HTTP API)
	viper.SetDefault("transcription.api_url", "https://api.deepgram.com/v1/listen")
	viper.SetDefault("transcription.model", "nova-2")
	viper.SetDefault("transcription.language", "en")
	viper.SetDefault("transcription.timeout", 90*time.Second)

	// Detection defaults (OpenAI-compatible chat completion API)
	viper.SetDefault("detection.api_url", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("detection.model", "gpt-4o")
	viper.SetDefault("detection.temperature", 0.4)
	viper.SetDefault("detection.timeout", 2*time.Minute)

	// Plan limits
	viper.SetDefault("limits.max_source_seconds", 7200.0)
	viper.SetDefault("limits.max_clips", 10)

	// Object storage defaults
	viper.SetDefault("objectstore.backend", "filesystem") // "s3" or "filesystem"
	viper.SetDefault("objectstore.bucket", "clipforge-media")
	viper.SetDefault("objectstore.prefix", "clips")
	viper.SetDefault("objectstore.region", "us-east-1")
	viper.SetDefault("objectstore.local_dir", "./data/media")
	viper.SetDefault("objectstore.base_url", "http://localhost:8080/media")
	viper.SetDefault("objectstore.signed_url_ttl", 1*time.Hour)
	viper.SetDefault("objectstore.url_cache_ttl", 10*time.Minute)
	viper.SetDefault("objectstore.url_cache_mb", 16)

	// Storage defaults
	viper.SetDefault("storage.temp_dir", "./tmp")
	viper.SetDefault("storage.max_temp_age", 24*time.Hour)
	viper.SetDefault("storage.cleanup_interval", 1*time.Hour)
	viper.SetDefault("storage.job_retention_days", 7)

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
}
