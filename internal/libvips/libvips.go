// Package libvips wraps libvips for the encoders the Go standard library
// lacks, currently WebP. libvips must be started once per process with Init
// and stopped with Shutdown.
package libvips

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

// ErrNotInitialized is returned when encoding before Init.
var ErrNotInitialized = errors.New("libvips: not initialized")

var (
	initialized bool
	initMu      sync.Mutex
)

// Init starts libvips with conservative memory settings and routes its log
// output into logger. Calling Init again is a no-op.
func Init(logger *slog.Logger) {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Configure vips logging before Startup so domain messages go through slog
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logger.Error("libvips", slog.String("domain", domain), slog.String("msg", msg))
		case vips.LogLevelWarning:
			logger.Warn("libvips", slog.String("domain", domain), slog.String("msg", msg))
		default:
			logger.Debug("libvips", slog.String("domain", domain), slog.String("msg", msg))
		}
	}, vips.LogLevelWarning)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	initialized = true
	logger.Info("libvips initialized", slog.String("version", vips.Version))
}

// Shutdown releases libvips resources.
func Shutdown() {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		vips.Shutdown()
		initialized = false
	}
}

// Available reports whether Init has been called.
func Available() bool {
	initMu.Lock()
	defer initMu.Unlock()
	return initialized
}

// WebPEncoder encodes images as WebP through libvips.
type WebPEncoder struct{}

// NewWebPEncoder returns a WebPEncoder. Init must be called before use.
func NewWebPEncoder() *WebPEncoder {
	return &WebPEncoder{}
}

// EncodeWebP hands img to libvips as PNG and exports WebP.
func (WebPEncoder) EncodeWebP(img image.Image, quality int, lossless bool) ([]byte, error) {
	if !Available() {
		return nil, ErrNotInitialized
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("stage png: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	params := vips.NewWebpExportParams()
	params.Quality = quality
	params.Lossless = lossless
	params.StripMetadata = true

	data, _, err := ref.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("vips export webp: %w", err)
	}
	return data, nil
}
