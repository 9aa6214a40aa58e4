package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
		ok    bool
	}{
		{"png", FormatPNG, true},
		{"PNG", FormatPNG, true},
		{"jpeg", FormatJPEG, true},
		{"jpg", FormatJPEG, true},
		{" webp ", FormatWebP, true},
		{"gif", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFormat(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_MIMEAndExt(t *testing.T) {
	assert.Equal(t, "image/png", FormatPNG.MIME())
	assert.Equal(t, "image/jpeg", FormatJPEG.MIME())
	assert.Equal(t, "image/webp", FormatWebP.MIME())
	assert.Equal(t, "png", FormatPNG.Ext())
	assert.Equal(t, "jpg", FormatJPEG.Ext())
	assert.Equal(t, "webp", FormatWebP.Ext())
}

func TestOptions_Normalize(t *testing.T) {
	t.Run("zero value gets defaults", func(t *testing.T) {
		got := Options{}.Normalize()
		assert.Equal(t, DefaultOptions(), got)
	})

	t.Run("quality above one is clamped", func(t *testing.T) {
		got := Options{Quality: 3}.Normalize()
		assert.Equal(t, 1.0, got.Quality)
	})

	t.Run("negative quality falls back to default", func(t *testing.T) {
		got := Options{Quality: -0.5}.Normalize()
		assert.Equal(t, DefaultQuality, got.Quality)
	})

	t.Run("unknown format falls back to png", func(t *testing.T) {
		got := Options{OutputFormat: "tga"}.Normalize()
		assert.Equal(t, FormatPNG, got.OutputFormat)
	})

	t.Run("jpg alias becomes jpeg", func(t *testing.T) {
		got := Options{OutputFormat: "jpg"}.Normalize()
		assert.Equal(t, FormatJPEG, got.OutputFormat)
	})

	t.Run("explicit values are kept", func(t *testing.T) {
		in := Options{
			OutputFormat: FormatWebP,
			Quality:      0.5,
			Video:        VideoOptions{StartTime: "00:00:02", Duration: 3},
		}
		assert.Equal(t, in, in.Normalize())
	})
}

func TestParseOptions(t *testing.T) {
	t.Run("empty input yields defaults", func(t *testing.T) {
		opts, err := ParseOptions(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultOptions(), opts)
	})

	t.Run("duration as string", func(t *testing.T) {
		opts, err := ParseOptions([]byte(`{"videoOptions":{"startTime":"00:00:02","duration":"3"}}`))
		require.NoError(t, err)
		assert.Equal(t, "00:00:02", opts.Video.StartTime)
		assert.Equal(t, Seconds(3), opts.Video.Duration)
	})

	t.Run("duration as number", func(t *testing.T) {
		opts, err := ParseOptions([]byte(`{"videoOptions":{"duration":2.5}}`))
		require.NoError(t, err)
		assert.Equal(t, Seconds(2.5), opts.Video.Duration)
		assert.Equal(t, DefaultStartTime, opts.Video.StartTime)
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		opts, err := ParseOptions([]byte(`{"outputFormat":"jpg","quality":0.4,"sharpen":true}`))
		require.NoError(t, err)
		assert.Equal(t, FormatJPEG, opts.OutputFormat)
		assert.Equal(t, 0.4, opts.Quality)
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		_, err := ParseOptions([]byte(`{"quality":`))
		require.Error(t, err)
	})

	t.Run("non numeric duration is an error", func(t *testing.T) {
		_, err := ParseOptions([]byte(`{"videoOptions":{"duration":"soon"}}`))
		require.Error(t, err)
	})
}

func TestOptions_ZeroQualityMeansDefault(t *testing.T) {
	opts, err := ParseOptions([]byte(`{"quality":0}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultQuality, opts.Quality)

	assert.Equal(t, 0.01, Options{Quality: 0.01}.Normalize().Quality)
}
