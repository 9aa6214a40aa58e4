package config

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "MAX_UPLOAD_MB", "TEMP_DIR",
	"FFMPEG_PATH", "FFPROBE_PATH", "VIDEO_AUTOLOAD", "VIDEO_TIMEOUT", "VIDEO_MAX_CONCURRENT",
	"WEBP_ENABLED",
	"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"GCS_BUCKET", "GCS_CREDENTIALS_FILE", "GCS_ENDPOINT",
	"LOG_FORMAT", "LOG_LEVEL",
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func validConfig() *Config {
	return &Config{
		Port:               8080,
		MaxUploadMB:        200,
		TempDir:            "/tmp/mediaconvert",
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		VideoTimeout:       2 * time.Minute,
		VideoMaxConcurrent: 2,
		LogFormat:          "text",
		LogLevel:           "info",
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(200), cfg.MaxUploadMB)
	assert.Equal(t, int64(200<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "/tmp/mediaconvert", cfg.TempDir)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.True(t, cfg.VideoAutoload)
	assert.Equal(t, 2*time.Minute, cfg.VideoTimeout)
	assert.Equal(t, 2, cfg.VideoMaxConcurrent)
	assert.True(t, cfg.WebPEnabled)
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.GCSEnabled())
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("MAX_UPLOAD_MB", "50")
	t.Setenv("TEMP_DIR", "/custom/temp")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("FFPROBE_PATH", "/opt/ffmpeg/bin/ffprobe")
	t.Setenv("VIDEO_AUTOLOAD", "false")
	t.Setenv("VIDEO_TIMEOUT", "30s")
	t.Setenv("VIDEO_MAX_CONCURRENT", "1")
	t.Setenv("WEBP_ENABLED", "false")
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_ENDPOINT", "http://localhost:4566")
	t.Setenv("AWS_ACCESS_KEY_ID", "access-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret-key")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, int64(50), cfg.MaxUploadMB)
	assert.Equal(t, "/custom/temp", cfg.TempDir)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", cfg.FFprobePath)
	assert.False(t, cfg.VideoAutoload)
	assert.Equal(t, 30*time.Second, cfg.VideoTimeout)
	assert.Equal(t, 1, cfg.VideoMaxConcurrent)
	assert.False(t, cfg.WebPEnabled)
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, "http://localhost:4566", cfg.S3Endpoint)
	assert.Equal(t, "access-key", cfg.AWSAccessKeyID)
	assert.Equal(t, "secret-key", cfg.AWSSecretAccessKey)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_GCS(t *testing.T) {
	clearEnv(t)
	t.Setenv("GCS_BUCKET", "media-out")
	t.Setenv("GCS_CREDENTIALS_FILE", "/secrets/sa.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.GCSEnabled())
	assert.Equal(t, "/secrets/sa.json", cfg.GCSCredentialsFile)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "PORT", "not-a-number"},
		{"timeout not a duration", "VIDEO_TIMEOUT", "soon"},
		{"zero concurrency", "VIDEO_MAX_CONCURRENT", "0"},
		{"port out of range", "PORT", "70000"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"bad endpoint", "S3_ENDPOINT", "::not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestConfig_S3Enabled(t *testing.T) {
	tests := []struct {
		name     string
		bucket   string
		region   string
		expected bool
	}{
		{"both set", "bucket", "region", true},
		{"only bucket", "bucket", "", false},
		{"only region", "", "region", false},
		{"neither set", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				S3Bucket: tt.bucket,
				S3Region: tt.region,
			}
			assert.Equal(t, tt.expected, cfg.S3Enabled())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("bucket without region", func(t *testing.T) {
		cfg := validConfig()
		cfg.S3Bucket = "bucket"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("both sinks", func(t *testing.T) {
		cfg := validConfig()
		cfg.S3Bucket = "bucket"
		cfg.S3Region = "us-east-1"
		cfg.GCSBucket = "other"
		assert.ErrorIs(t, cfg.Validate(), ErrMultipleSinks)
	})

	t.Run("missing temp dir", func(t *testing.T) {
		cfg := validConfig()
		cfg.TempDir = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.VideoTimeout = -time.Second
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestConfig_String(t *testing.T) {
	cfg := validConfig()
	cfg.S3Bucket = "bucket"
	cfg.S3Region = "region"
	cfg.AWSAccessKeyID = "AKIAEXAMPLE"
	cfg.AWSSecretAccessKey = "secret-key"
	cfg.GCSCredentialsFile = "/secrets/sa.json"

	str := cfg.String()

	// Should contain non-sensitive values
	assert.Contains(t, str, "8080")
	assert.Contains(t, str, "/tmp/mediaconvert")
	assert.Contains(t, str, "bucket")

	// Should NOT contain sensitive values
	assert.NotContains(t, str, "AKIAEXAMPLE")
	assert.NotContains(t, str, "secret-key")
	assert.NotContains(t, str, "/secrets/sa.json")
	assert.Contains(t, str, "****")
}

func TestConfig_NewLogger_JSON(t *testing.T) {
	cfg := &Config{
		LogFormat: "json",
		LogLevel:  "info",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	assert.IsType(t, &slog.JSONHandler{}, logger.Handler())

	// Capture output to verify it's JSON
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	testLogger := slog.New(handler)
	testLogger.Info("test message")

	// Should have JSON structure
	assert.Contains(t, buf.String(), `"msg"`)
	assert.Contains(t, buf.String(), "test message")
}

func TestConfig_NewLogger_Text(t *testing.T) {
	cfg := &Config{
		LogFormat: "text",
		LogLevel:  "debug",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	assert.IsType(t, &slog.TextHandler{}, logger.Handler())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
