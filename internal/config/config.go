// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidConfig is returned when a value is outside its allowed range.
	ErrInvalidConfig = errors.New("config: invalid configuration")
	// ErrMultipleSinks is returned when both S3 and GCS publishing are configured.
	ErrMultipleSinks = errors.New("config: configure either S3 or GCS publishing, not both")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port        int   `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`
	MaxUploadMB int64 `env:"MAX_UPLOAD_MB, default=200" json:"max_upload_mb" validate:"min=1"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/mediaconvert" json:"temp_dir" validate:"required"`

	// Video engine settings
	FFmpegPath         string        `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path" validate:"required"`
	FFprobePath        string        `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path" validate:"required"`
	VideoAutoload      bool          `env:"VIDEO_AUTOLOAD, default=true" json:"video_autoload"`
	VideoTimeout       time.Duration `env:"VIDEO_TIMEOUT, default=2m" json:"video_timeout" validate:"min=0"`
	VideoMaxConcurrent int           `env:"VIDEO_MAX_CONCURRENT, default=2" json:"video_max_concurrent" validate:"min=1,max=64"`

	// Image engine settings
	WebPEnabled bool `env:"WEBP_ENABLED, default=true" json:"webp_enabled"`

	// Optional S3 publishing
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty" validate:"required_with=S3Region"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty" validate:"required_with=S3Bucket"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Optional GCS publishing
	GCSBucket          string `env:"GCS_BUCKET" json:"gcs_bucket,omitempty"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE" json:"-"` // Masked in JSON
	GCSEndpoint        string `env:"GCS_ENDPOINT" json:"gcs_endpoint,omitempty" validate:"omitempty,url"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=json text JSON TEXT"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`                                        // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// GCSEnabled returns true if GCS configuration is provided.
func (c *Config) GCSEnabled() bool {
	return c.GCSBucket != ""
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field ranges and that at most one publishing sink is set.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.S3Enabled() && c.GCSEnabled() {
		return ErrMultipleSinks
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, MaxUploadMB: %d, TempDir: %s, FFmpegPath: %s, FFprobePath: %s, VideoAutoload: %t, VideoTimeout: %s, VideoMaxConcurrent: %d, WebPEnabled: %t, S3Bucket: %s, S3Region: %s, S3Endpoint: %s, AWSAccessKeyID: %s, AWSSecretAccessKey: %s, GCSBucket: %s, GCSCredentialsFile: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.MaxUploadMB,
		c.TempDir,
		c.FFmpegPath,
		c.FFprobePath,
		c.VideoAutoload,
		c.VideoTimeout,
		c.VideoMaxConcurrent,
		c.WebPEnabled,
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		mask(c.AWSAccessKeyID),
		mask(c.AWSSecretAccessKey),
		c.GCSBucket,
		mask(c.GCSCredentialsFile),
		c.LogFormat,
		c.LogLevel,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
