// Package transcode implements the video processing engine on top of the
// ffmpeg toolchain. A Runtime gates every operation: it must be loaded
// before the Engine accepts work and it bounds how many ffmpeg processes
// run at once.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/maauso/mediaconvert-api/internal/convert"
	"github.com/maauso/mediaconvert-api/internal/storage"
)

// Op enumerates the video operations.
type Op int

const (
	// OpTrim cuts [start, start+duration) keeping the input container.
	OpTrim Op = iota + 1
	// OpMute drops every audio stream and copies video.
	OpMute
	// OpExtractAudio writes the first audio stream as MP3.
	OpExtractAudio
	// OpCompress re-encodes with a fixed H.264 preset.
	OpCompress
	// OpAnimatedImage renders a looping GIF from a time window.
	OpAnimatedImage
)

var opNames = map[Op]string{
	OpTrim:          "trim",
	OpMute:          "mute",
	OpExtractAudio:  "extract-audio",
	OpCompress:      "compress",
	OpAnimatedImage: "animated-image",
}

// String returns the operation name.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

var toolTable = map[convert.ToolID]Op{
	"trim-video":     OpTrim,
	"mute-video":     OpMute,
	"extract-audio":  OpExtractAudio,
	"compress-video": OpCompress,
	"video-to-gif":   OpAnimatedImage,
	"to-gif":         OpAnimatedImage,
}

// Lookup resolves a video tool id.
func Lookup(tool convert.ToolID) (Op, bool) {
	op, ok := toolTable[tool]
	return op, ok
}

// Encoding parameters.
const (
	CompressPreset = "medium"
	CompressCRF    = "28"
	CompressAudio  = "96k"
	GIFFilter      = "fps=10,scale=480:-1:flags=lanczos"
	MP3Quality     = "2"
)

// DefaultContainer is used when the input extension is not a known
// video container.
const DefaultContainer = "mp4"

var containers = map[string]bool{
	"mp4": true, "m4v": true, "mov": true, "mkv": true, "webm": true,
	"avi": true, "mpg": true, "mpeg": true, "ts": true, "3gp": true,
}

// Codecs the engine accepts. Anything else is rejected before ffmpeg runs.
var supportedCodecs = map[string]map[string]bool{
	"video": {
		"h264": true, "hevc": true, "vp8": true, "vp9": true, "av1": true,
		"mpeg4": true, "mpeg2video": true, "mpeg1video": true, "mjpeg": true,
		"prores": true, "theora": true, "h263": true, "msmpeg4v3": true,
		"wmv2": true, "wmv3": true,
	},
	"audio": {
		"aac": true, "mp3": true, "opus": true, "vorbis": true, "flac": true,
		"ac3": true, "eac3": true, "alac": true, "mp2": true,
		"pcm_s16le": true, "pcm_s24le": true, "pcm_f32le": true,
	},
}

// Source is a video input held in memory.
type Source struct {
	Name     string
	MimeType string
	Data     []byte
}

// Engine runs video operations through a Runtime.
type Engine struct {
	rt      *Runtime
	scratch storage.Scratch
	logger  *slog.Logger
}

// NewEngine creates a video Engine. scratch holds the staged input and the
// ffmpeg output for the duration of one call.
func NewEngine(rt *Runtime, scratch storage.Scratch, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rt: rt, scratch: scratch, logger: logger}
}

// Runtime returns the handle gating this engine.
func (e *Engine) Runtime() *Runtime {
	return e.rt
}

// Process runs op on src.
//
// It fails fast with convert.ErrEngineNotReady when the runtime is not
// Ready, then waits for a slot. The input is probed first: an unparseable
// container is convert.ErrDecode and a missing or unknown stream codec is
// convert.ErrUnsupportedCodec. ffmpeg failures are convert.ErrTranscode
// wrapping *FFmpegError. Scratch files are removed on every path.
func (e *Engine) Process(ctx context.Context, src Source, op Op, opts convert.Options) (convert.Artifact, error) {
	if !e.rt.IsReady() {
		return convert.Artifact{}, convert.ErrEngineNotReady
	}
	if _, ok := opNames[op]; !ok {
		return convert.Artifact{}, fmt.Errorf("%w: video operation %s", convert.ErrUnsupportedTool, op)
	}

	opCtx, release, err := e.rt.Acquire(ctx)
	if err != nil {
		return convert.Artifact{}, err
	}
	defer release()

	opts = opts.Normalize()
	started := time.Now()
	container := containerOf(src)

	var scratch []string
	defer func() {
		// Cleanup must outlive a cancelled request
		if err := e.scratch.CleanupTemp(context.WithoutCancel(ctx), scratch); err != nil {
			e.logger.Warn("cleanup scratch files", slog.String("error", err.Error()))
		}
	}()

	in, err := e.scratch.SaveTemp(opCtx, baseName(src.Name, container), bytes.NewReader(src.Data))
	if err != nil {
		return convert.Artifact{}, scratchErr(opCtx, err)
	}
	scratch = append(scratch, in)

	probe, err := e.rt.runner.Probe(opCtx, in)
	if err != nil {
		if ctxErr := opCtx.Err(); ctxErr != nil {
			return convert.Artifact{}, ctxErr
		}
		return convert.Artifact{}, fmt.Errorf("%w: %w", convert.ErrDecode, err)
	}
	if err := checkStreams(op, probe); err != nil {
		return convert.Artifact{}, err
	}

	out := outputFor(op, container)
	outPath, err := e.scratch.ReserveTemp(opCtx, src.Name, out.ext)
	if err != nil {
		return convert.Artifact{}, scratchErr(opCtx, err)
	}
	scratch = append(scratch, outPath)

	args, msg, err := buildArgs(op, in, outPath, probe.Duration(), opts.Video)
	if err != nil {
		return convert.Artifact{}, err
	}

	if err := e.rt.runner.Run(opCtx, args); err != nil {
		if ctxErr := opCtx.Err(); ctxErr != nil {
			return convert.Artifact{}, ctxErr
		}
		return convert.Artifact{}, fmt.Errorf("%w: %w", convert.ErrTranscode, err)
	}

	data, err := e.readOutput(opCtx, outPath)
	if err != nil {
		return convert.Artifact{}, err
	}

	e.logger.Debug("video operation complete",
		slog.String("op", op.String()),
		slog.String("container", container),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(started)),
	)

	return convert.Artifact{
		Data:    data,
		MIME:    out.mime,
		Ext:     out.ext,
		Message: msg,
	}, nil
}

func (e *Engine) readOutput(ctx context.Context, path string) ([]byte, error) {
	rc, err := e.scratch.LoadTemp(ctx, path)
	if err != nil {
		return nil, scratchErr(ctx, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read ffmpeg output: %w", convert.ErrIO, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no output", convert.ErrTranscode)
	}
	return data, nil
}

// checkStreams verifies op has a stream it can work on.
func checkStreams(op Op, p *ProbeResult) error {
	need := "video"
	if op == OpExtractAudio {
		need = "audio"
	}

	s, ok := p.FirstStream(need)
	if !ok {
		return fmt.Errorf("%w: no %s stream", convert.ErrUnsupportedCodec, need)
	}
	if !supportedCodecs[need][s.CodecName] {
		return fmt.Errorf("%w: %s codec %q", convert.ErrUnsupportedCodec, need, s.CodecName)
	}
	return nil
}

type output struct {
	ext  string
	mime string
}

func outputFor(op Op, container string) output {
	switch op {
	case OpExtractAudio:
		return output{ext: "mp3", mime: convert.MIMEMP3}
	case OpAnimatedImage:
		return output{ext: "gif", mime: convert.MIMEGIF}
	case OpCompress:
		return output{ext: "mp4", mime: convert.MIMEMP4}
	default:
		mime := convert.MIMEByExt("x." + container)
		if mime == "" {
			mime = convert.MIMEMP4
		}
		return output{ext: container, mime: mime}
	}
}

// buildArgs returns the ffmpeg arguments for op. total is the probed input
// duration in seconds, 0 when unknown.
func buildArgs(op Op, in, out string, total float64, vo convert.VideoOptions) ([]string, string, error) {
	switch op {
	case OpTrim:
		start, dur, err := window(total, vo)
		if err != nil {
			return nil, "", err
		}
		args := []string{
			"-y",
			"-ss", FormatTimecode(start), // Seek before input for speed
			"-i", in,
			"-t", FormatTimecode(dur),
			out,
		}
		return args, fmt.Sprintf("Video trimmed to %.2fs starting at %s", dur, FormatTimecode(start)), nil

	case OpMute:
		args := []string{
			"-y",
			"-i", in,
			"-an",        // Drop audio
			"-c:v", "copy", // Keep video as is
			out,
		}
		return args, "Audio removed from video", nil

	case OpExtractAudio:
		args := []string{
			"-y",
			"-i", in,
			"-vn", // Drop video
			"-c:a", "libmp3lame",
			"-q:a", MP3Quality,
			out,
		}
		return args, "Audio extracted as MP3", nil

	case OpCompress:
		args := []string{
			"-y",
			"-i", in,
			"-c:v", "libx264",
			"-preset", CompressPreset,
			"-crf", CompressCRF,
			"-pix_fmt", "yuv420p", // Pixel format for compatibility
			"-c:a", "aac",
			"-b:a", CompressAudio,
			"-movflags", "+faststart",
			out,
		}
		return args, "Video compressed", nil

	case OpAnimatedImage:
		start, dur, err := window(total, vo)
		if err != nil {
			return nil, "", err
		}
		// Two pass palette in a single graph keeps colors stable
		filter := GIFFilter + ",split[a][b];[a]palettegen[p];[b][p]paletteuse"
		args := []string{
			"-y",
			"-ss", FormatTimecode(start),
			"-t", FormatTimecode(dur),
			"-i", in,
			"-filter_complex", filter,
			"-loop", "0",
			out,
		}
		return args, fmt.Sprintf("GIF created from %.2fs of video", dur), nil
	}

	return nil, "", fmt.Errorf("%w: video operation %s", convert.ErrUnsupportedTool, op)
}

// window resolves the requested time window against the input length.
// A duration running past the end is clamped; a start at or past the end
// is an error.
func window(total float64, vo convert.VideoOptions) (float64, float64, error) {
	start, err := ParseTimecode(vo.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", convert.ErrTranscode, err)
	}

	dur := float64(vo.Duration)
	if dur <= 0 {
		dur = float64(convert.DefaultDuration)
	}

	if total > 0 {
		if start >= total {
			return 0, 0, fmt.Errorf("%w: start %s is past the end of a %.2fs input",
				convert.ErrTranscode, FormatTimecode(start), total)
		}
		dur = min(dur, total-start)
	}
	return start, dur, nil
}

// containerOf picks the output container for container-preserving ops.
func containerOf(src Source) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(src.Name), "."))
	if containers[ext] {
		return ext
	}
	if ext := convert.ExtByMIME(src.MimeType); containers[ext] {
		return ext
	}
	return DefaultContainer
}

// baseName gives the staged input a container extension ffprobe can use.
func baseName(name, container string) string {
	return convert.StripExt(filepath.Base(name)) + "." + container
}

func scratchErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	return fmt.Errorf("%w: scratch: %w", convert.ErrIO, err)
}
