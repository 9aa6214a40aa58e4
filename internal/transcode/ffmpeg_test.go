package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediaconvert-api/internal/convert"
	"github.com/maauso/mediaconvert-api/internal/storage"
)

// skipIfNoFFmpeg skips the test if ffmpeg or ffprobe is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH, skipping test", bin)
		}
	}
}

// createTestVideo creates a simple test video using ffmpeg.
func createTestVideo(t *testing.T, path string, duration float64, color string) {
	t.Helper()

	// Create a simple video with solid color and silent audio
	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=%s:s=64x64:d=%.1f", color, duration),
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=44100:cl=mono:d=%.1f", duration),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\noutput: %s", err, output)
	}
}

func realEngine(t *testing.T) (*Engine, *FFmpeg) {
	t.Helper()
	skipIfNoFFmpeg(t)

	scratch, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ff := NewFFmpeg("", "")
	rt := NewRuntime(ff, testLogger())
	require.NoError(t, rt.Load(context.Background()))
	assert.NotEmpty(t, rt.Version())

	return NewEngine(rt, scratch, testLogger()), ff
}

func probeFile(t *testing.T, ff *FFmpeg, name string, data []byte) *ProbeResult {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	p, err := ff.Probe(context.Background(), path)
	require.NoError(t, err)
	return p
}

func TestFFmpeg_TrimVideo(t *testing.T) {
	e, ff := realEngine(t)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	createTestVideo(t, src, 6, "blue")
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	out, err := e.Process(ctx, Source{Name: "clip.mp4", MimeType: "video/mp4", Data: data},
		OpTrim, trimOptions("00:00:02", 3))
	require.NoError(t, err)
	assert.Equal(t, "mp4", out.Ext)
	assert.Equal(t, "video/mp4", out.MIME)

	p := probeFile(t, ff, "trimmed.mp4", out.Data)
	assert.LessOrEqual(t, p.Duration(), 3.1)
	assert.Greater(t, p.Duration(), 2.0)
	_, hasVideo := p.FirstStream("video")
	assert.True(t, hasVideo)
}

func TestFFmpeg_MuteAndExtract(t *testing.T) {
	e, ff := realEngine(t)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	createTestVideo(t, src, 2, "red")
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	in := Source{Name: "clip.mp4", MimeType: "video/mp4", Data: data}

	muted, err := e.Process(context.Background(), in, OpMute, convert.DefaultOptions())
	require.NoError(t, err)
	p := probeFile(t, ff, "muted.mp4", muted.Data)
	_, hasAudio := p.FirstStream("audio")
	assert.False(t, hasAudio, "muted output still has audio")

	audio, err := e.Process(context.Background(), in, OpExtractAudio, convert.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", audio.MIME)
	p = probeFile(t, ff, "audio.mp3", audio.Data)
	_, hasVideo := p.FirstStream("video")
	assert.False(t, hasVideo)
}

func TestFFmpeg_AnimatedImage(t *testing.T) {
	e, _ := realEngine(t)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	createTestVideo(t, src, 2, "green")
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	out, err := e.Process(context.Background(), Source{Name: "clip.mp4", Data: data},
		OpAnimatedImage, convert.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "image/gif", out.MIME)
	assert.Equal(t, "GIF89a", string(out.Data[:6]))
}

func TestFFmpeg_ProbeGarbage(t *testing.T) {
	e, _ := realEngine(t)

	_, err := e.Process(context.Background(), Source{Name: "clip.mp4", Data: []byte("definitely not a video")},
		OpMute, convert.DefaultOptions())
	assert.ErrorIs(t, err, convert.ErrDecode)
}
