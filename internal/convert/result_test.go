package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want string
	}{
		{"photo.png", "jpg", "photo.jpg"},
		{"notes.txt", "xyz", "notes.xyz"},
		{"archive.tar.gz", "converted", "archive.tar.converted"},
		{"README", "txt", "README.txt"},
		{"dir/clip.mp4", ".gif", "clip.gif"},
		{"", "png", "output.png"},
		{"photo.png", "", "photo"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"->"+tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputName(tt.name, tt.ext))
		})
	}
}

func TestPackage(t *testing.T) {
	file := NewInputFile("photo.png", "image/png", make([]byte, 500))

	res := Package(file, 500, Artifact{
		Data:    []byte("jpeg-bytes"),
		MIME:    "image/jpeg",
		Ext:     "jpg",
		Message: "compressed",
	})

	assert.Equal(t, "photo.jpg", res.Name)
	assert.Equal(t, "photo.png", res.OriginalName)
	assert.Equal(t, int64(500), res.OriginalSize)
	assert.Equal(t, "image/jpeg", res.Type)
	assert.Equal(t, int64(len("jpeg-bytes")), res.Size)
	assert.Equal(t, "compressed", res.Message)
	assert.False(t, res.Placeholder)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestInputFile_ReadAll(t *testing.T) {
	t.Run("reads body", func(t *testing.T) {
		data, err := NewInputFile("a.txt", "text/plain", []byte("hello")).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
	})

	t.Run("read failure is an IO error", func(t *testing.T) {
		_, err := InputFile{Name: "a.txt", Body: failingReader{}}.ReadAll()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIO)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("missing body is an IO error", func(t *testing.T) {
		_, err := InputFile{Name: "a.txt"}.ReadAll()
		assert.ErrorIs(t, err, ErrIO)
	})
}

func TestOpenInputFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("extension decides the type", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("some notes"), 0600))

		f, err := OpenInputFile(path)
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", f.Name)
		assert.Equal(t, "text/plain", f.MimeType)
		assert.Equal(t, int64(10), f.Size)
	})

	t.Run("unknown extension is sniffed", func(t *testing.T) {
		path := filepath.Join(dir, "blob.dat")
		require.NoError(t, os.WriteFile(path, []byte("plain words here"), 0600))

		f, err := OpenInputFile(path)
		require.NoError(t, err)
		assert.Equal(t, "text/plain", f.MimeType)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenInputFile(filepath.Join(dir, "nope.png"))
		assert.ErrorIs(t, err, ErrIO)
	})
}

func TestMIMEHelpers(t *testing.T) {
	assert.Equal(t, "video/mp4", MIMEByExt("clip.MP4"))
	assert.Equal(t, "", MIMEByExt("file.unknown"))
	assert.Equal(t, "jpg", ExtByMIME("image/jpeg"))
	assert.Equal(t, "mp4", ExtByMIME("video/mp4; codecs=avc1"))
	assert.Equal(t, "text/plain", BaseMIME("Text/Plain; charset=utf-8"))
	assert.True(t, HasClass("image/png", ClassImage))
	assert.False(t, HasClass("video/mp4", ClassImage))
}

func TestUserMessage(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("dispatch: %w", err) }

	messages := map[string]string{
		"not ready":   UserMessage(wrap(ErrEngineNotReady)),
		"unsupported": UserMessage(wrap(ErrUnsupportedTool)),
		"decode":      UserMessage(wrap(ErrDecode)),
		"codec":       UserMessage(wrap(ErrUnsupportedCodec)),
		"io":          UserMessage(wrap(ErrIO)),
		"transcode":   UserMessage(wrap(ErrTranscode)),
		"timeout":     UserMessage(wrap(context.DeadlineExceeded)),
	}

	seen := make(map[string]string)
	for k, msg := range messages {
		require.NotEmpty(t, msg, k)
		if other, dup := seen[msg]; dup {
			t.Errorf("%s and %s share message %q", k, other, msg)
		}
		seen[msg] = k
	}

	assert.Contains(t, messages["not ready"], "loading")
	assert.Contains(t, messages["decode"], "Wrong file type")
	assert.Contains(t, messages["transcode"], "Processing failed")
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, messages["transcode"], UserMessage(errors.New("boom")))
}
