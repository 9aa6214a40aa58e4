// Package media implements the image processing engine. Every operation is a
// pure function of the decoded pixel buffer and a few fixed parameters, so
// an Engine can serve any number of concurrent requests.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // WebP decoding; encoding goes through WebPEncoder

	"github.com/maauso/mediaconvert-api/internal/convert"
)

// ErrEncoderUnavailable is returned when WebP output is requested and no
// WebP encoder is configured.
var ErrEncoderUnavailable = errors.New("media: webp encoder unavailable")

// WebPEncoder encodes an image as WebP.
// quality is 1-100; lossless takes precedence over quality.
type WebPEncoder interface {
	EncodeWebP(img image.Image, quality int, lossless bool) ([]byte, error)
}

// Engine runs image operations.
type Engine struct {
	webp   WebPEncoder
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWebPEncoder sets the encoder used for WebP output.
func WithWebPEncoder(enc WebPEncoder) Option {
	return func(e *Engine) {
		e.webp = enc
	}
}

// NewEngine creates an image Engine.
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process applies op to the encoded image in data and returns the re-encoded
// artifact. Undecodable input yields convert.ErrDecode.
func (e *Engine) Process(ctx context.Context, data []byte, op Operation, opts convert.Options) (convert.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return convert.Artifact{}, err
	}
	opts = opts.Normalize()

	// Base64 works on the raw bytes, no decode needed.
	if op.Op == OpBase64 {
		return convert.Artifact{
			Data:    []byte(base64.StdEncoding.EncodeToString(data)),
			MIME:    convert.MIMEText,
			Ext:     "txt",
			Message: "Image encoded as base64 text",
		}, nil
	}

	img, err := Decode(data)
	if err != nil {
		return convert.Artifact{}, err
	}

	format := opts.OutputFormat
	var out image.Image
	var msg string

	switch op.Op {
	case OpConvert:
		if op.Format != "" {
			format = op.Format
		}
		out = img
		msg = fmt.Sprintf("Image converted to %s", format.Ext())
	case OpCompress:
		format = convert.FormatJPEG
		out = img
		msg = fmt.Sprintf("Image compressed at quality %d", encoderQuality(opts.Quality))
	case OpEnhance:
		out = enhance(img)
		msg = "Image enhanced"
	case OpGrayscale:
		out = grayscale(img)
		msg = "Image converted to grayscale"
	case OpRotate90:
		out = rotate90(img)
		msg = "Image rotated 90° clockwise"
	case OpFlipH:
		out = imaging.FlipH(img)
		msg = "Image flipped horizontally"
	case OpFlipV:
		out = imaging.FlipV(img)
		msg = "Image flipped vertically"
	case OpBlur:
		out = blur(img, BlurSigma)
		msg = "Image blurred"
	case OpBrighten:
		out = brighten(img, BrightenFactor)
		msg = "Image brightened"
	case OpPixelate:
		out = pixelate(img, PixelBlockSize)
		msg = "Image pixelated"
	case OpRemoveWhite:
		format = convert.FormatPNG
		out = removeWhite(img, WhiteThreshold)
		msg = "White background removed"
	default:
		return convert.Artifact{}, fmt.Errorf("%w: image operation %s", convert.ErrUnsupportedTool, op.Op)
	}

	if err := ctx.Err(); err != nil {
		return convert.Artifact{}, err
	}

	encoded, err := e.Encode(out, format, opts.Quality)
	if err != nil {
		return convert.Artifact{}, err
	}

	e.logger.Debug("image operation complete",
		slog.String("op", op.Op.String()),
		slog.String("format", string(format)),
		slog.Int("width", out.Bounds().Dx()),
		slog.Int("height", out.Bounds().Dy()),
		slog.Int("bytes", len(encoded)),
	)

	return convert.Artifact{
		Data:    encoded,
		MIME:    format.MIME(),
		Ext:     format.Ext(),
		Message: msg,
	}, nil
}

// Decode parses an encoded image, applying EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", convert.ErrDecode, err)
	}
	return img, nil
}

// Encode serializes img in format. quality is in [0,1] and only affects
// lossy encoders; WebP switches to lossless at quality 1.
func (e *Engine) Encode(img image.Image, format convert.Format, quality float64) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case convert.FormatJPEG:
		flat := flatten(img, color.White)
		if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(encoderQuality(quality))); err != nil {
			return nil, fmt.Errorf("%w: encode jpeg: %w", convert.ErrTranscode, err)
		}
	case convert.FormatWebP:
		if e.webp == nil {
			return nil, fmt.Errorf("%w: %w", convert.ErrTranscode, ErrEncoderUnavailable)
		}
		data, err := e.webp.EncodeWebP(img, encoderQuality(quality), quality >= 1)
		if err != nil {
			return nil, fmt.Errorf("%w: encode webp: %w", convert.ErrTranscode, err)
		}
		return data, nil
	default:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("%w: encode png: %w", convert.ErrTranscode, err)
		}
	}

	return buf.Bytes(), nil
}

// flatten composites img onto a solid background. JPEG has no alpha channel.
func flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// encoderQuality maps [0,1] onto the 1-100 scale shared by the JPEG and
// WebP encoders.
func encoderQuality(q float64) int {
	v := int(math.Round(q * 100))
	return max(1, min(100, v))
}
