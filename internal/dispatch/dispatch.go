// Package dispatch routes conversion requests to the image engine, the
// video engine or the generic fallback and packages the outcome into a
// convert.Result.
package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/maauso/mediaconvert-api/internal/catalog"
	"github.com/maauso/mediaconvert-api/internal/convert"
	"github.com/maauso/mediaconvert-api/internal/media"
	"github.com/maauso/mediaconvert-api/internal/metrics"
	"github.com/maauso/mediaconvert-api/internal/transcode"
)

// Backend names used in logs and metrics.
const (
	BackendImage    = "image"
	BackendVideo    = "video"
	BackendFallback = "fallback"
)

// VideoBase64Tool is served without the transcoding runtime.
const VideoBase64Tool convert.ToolID = "video-to-base64"

// DefaultVideoTimeout bounds a single video operation.
const DefaultVideoTimeout = 2 * time.Minute

// ImageEngine runs image operations.
type ImageEngine interface {
	Process(ctx context.Context, data []byte, op media.Operation, opts convert.Options) (convert.Artifact, error)
}

// VideoEngine runs video operations.
type VideoEngine interface {
	Process(ctx context.Context, src transcode.Source, op transcode.Op, opts convert.Options) (convert.Artifact, error)
}

// Readiness reports whether the video runtime accepts work.
type Readiness interface {
	IsReady() bool
}

// Fallback handles everything no engine claims.
type Fallback interface {
	Convert(ctx context.Context, file convert.InputFile, data []byte, tool convert.ToolID, category convert.CategoryID) (convert.Artifact, error)
}

// Dispatcher selects a backend per request. It holds no per-request state
// and may be shared by concurrent callers.
type Dispatcher struct {
	image        ImageEngine
	video        VideoEngine
	runtime      Readiness
	fallback     Fallback
	videoTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithVideoEngine enables the video backend. rt gates it.
func WithVideoEngine(engine VideoEngine, rt Readiness) Option {
	return func(d *Dispatcher) {
		d.video = engine
		d.runtime = rt
	}
}

// WithVideoTimeout sets the per-call deadline of video operations.
// Zero or negative disables the deadline.
func WithVideoTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.videoTimeout = timeout
	}
}

// New creates a Dispatcher. Without WithVideoEngine every video tool other
// than base64 reports convert.ErrEngineNotReady.
func New(image ImageEngine, fallback Fallback, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		image:        image,
		fallback:     fallback,
		videoTimeout: DefaultVideoTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Convert reads file once, routes it and returns the packaged result.
//
// Routing, first match wins:
//  1. image category with an image/* MIME and a known image tool: image engine.
//  2. video category with a video/* MIME: base64 is served directly; any
//     other tool needs a ready runtime (convert.ErrEngineNotReady) and a
//     known video tool (convert.ErrUnsupportedTool).
//  3. everything else, including unknown image tools: fallback.
//
// An empty MimeType is sniffed from the content. Backend errors are
// returned unchanged.
func (d *Dispatcher) Convert(ctx context.Context, file convert.InputFile, tool convert.ToolID, category convert.CategoryID, opts convert.Options) (*convert.Result, error) {
	data, err := file.ReadAll()
	if err != nil {
		return nil, err
	}
	if file.MimeType == "" {
		file.MimeType = convert.SniffMIME(data)
	}
	originalSize := file.Size
	if originalSize <= 0 {
		originalSize = int64(len(data))
	}
	opts = opts.Normalize()

	start := time.Now()
	backend, artifact, err := d.route(ctx, file, data, tool, category, opts)
	elapsed := time.Since(start)
	metrics.ObserveConversion(backend, toolLabel(category, tool), err, elapsed, len(data))

	attrs := []any{
		slog.String("backend", backend),
		slog.String("tool", string(tool)),
		slog.String("category", string(category)),
		slog.String("mime", file.MimeType),
		slog.String("file", file.Name),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", elapsed),
	}
	if err != nil {
		d.logger.Warn("conversion failed", append(attrs, slog.String("error", err.Error()))...)
		return nil, err
	}

	res := convert.Package(file, originalSize, artifact)
	if res.Placeholder {
		metrics.PlaceholderResultsTotal.Inc()
	}
	d.logger.Info("conversion complete", append(attrs,
		slog.String("output", res.Name),
		slog.Int64("output_bytes", res.Size),
		slog.Bool("placeholder", res.Placeholder),
	)...)
	return res, nil
}

// toolLabel returns tool when it names a registered or engine-known tool
// and metrics.OtherTool otherwise, so callers cannot grow the label set.
func toolLabel(category convert.CategoryID, tool convert.ToolID) string {
	if _, ok := catalog.Lookup(category, tool); ok {
		return string(tool)
	}
	if _, ok := media.Lookup(tool); ok {
		return string(tool)
	}
	if _, ok := transcode.Lookup(tool); ok {
		return string(tool)
	}
	return metrics.OtherTool
}

func (d *Dispatcher) route(ctx context.Context, file convert.InputFile, data []byte, tool convert.ToolID, category convert.CategoryID, opts convert.Options) (string, convert.Artifact, error) {
	switch {
	case category == convert.CategoryImage && convert.HasClass(file.MimeType, convert.ClassImage):
		if op, ok := media.Lookup(tool); ok && d.image != nil {
			a, err := d.image.Process(ctx, data, op, opts)
			return BackendImage, a, err
		}
		// Unknown image tools fall through to the generic converter

	case category == convert.CategoryVideo && convert.HasClass(file.MimeType, convert.ClassVideo):
		a, err := d.convertVideo(ctx, file, data, tool, opts)
		return BackendVideo, a, err
	}

	if d.fallback == nil {
		return BackendFallback, convert.Artifact{}, fmt.Errorf("%w: %s", convert.ErrUnsupportedTool, tool)
	}
	a, err := d.fallback.Convert(ctx, file, data, tool, category)
	return BackendFallback, a, err
}

func (d *Dispatcher) convertVideo(ctx context.Context, file convert.InputFile, data []byte, tool convert.ToolID, opts convert.Options) (convert.Artifact, error) {
	if tool == VideoBase64Tool {
		return convert.Artifact{
			Data:    []byte(base64.StdEncoding.EncodeToString(data)),
			MIME:    convert.MIMEText,
			Ext:     "txt",
			Message: "Video encoded as base64 text",
		}, nil
	}

	if d.video == nil || d.runtime == nil || !d.runtime.IsReady() {
		return convert.Artifact{}, convert.ErrEngineNotReady
	}

	op, ok := transcode.Lookup(tool)
	if !ok {
		return convert.Artifact{}, fmt.Errorf("%w: video tool %q", convert.ErrUnsupportedTool, tool)
	}

	if d.videoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.videoTimeout)
		defer cancel()
	}

	metrics.VideoTranscodesInFlight.Inc()
	defer metrics.VideoTranscodesInFlight.Dec()

	src := transcode.Source{Name: file.Name, MimeType: file.MimeType, Data: data}
	return d.video.Process(ctx, src, op, opts)
}
