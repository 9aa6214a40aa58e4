package convert

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Format is the closed set of image output containers.
type Format string

const (
	// FormatPNG is lossless PNG output. It is the default.
	FormatPNG Format = "png"
	// FormatJPEG is lossy JPEG output.
	FormatJPEG Format = "jpeg"
	// FormatWebP is WebP output, lossless when quality is 1.
	FormatWebP Format = "webp"
)

// Defaults applied by Options.Normalize.
const (
	DefaultFormat    = FormatPNG
	DefaultQuality   = 0.7
	DefaultStartTime = "00:00:00"
	DefaultDuration  = Seconds(5)
)

// ParseFormat converts a user supplied format name into a Format.
// "jpg" is accepted as an alias of jpeg. Unknown names report false.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	case "webp":
		return FormatWebP, true
	default:
		return "", false
	}
}

// MIME returns the media type of the format.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Ext returns the file extension (without dot) used for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatWebP:
		return "webp"
	default:
		return "png"
	}
}

// Seconds is a duration in seconds. It unmarshals from a JSON number or a
// numeric string so that both {"duration": 3} and {"duration": "3"} work.
type Seconds float64

// UnmarshalJSON implements json.Unmarshaler.
func (s *Seconds) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		*s = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid seconds value %q: %w", raw, err)
	}
	*s = Seconds(v)
	return nil
}

// VideoOptions holds the parameters used by time-based video tools.
type VideoOptions struct {
	// StartTime is a timecode ("HH:MM:SS[.ms]") or plain seconds.
	StartTime string `json:"startTime,omitempty"`
	// Duration is the clip length in seconds.
	Duration Seconds `json:"duration,omitempty"`
}

// Options carries the caller supplied conversion settings.
// Zero values mean "use the default"; unknown JSON fields are ignored.
// Quality 0 is therefore indistinguishable from an absent quality and
// yields DefaultQuality; the lowest effective quality is any value in
// (0, 0.01], which encodes at 1 on the 1-100 scale.
type Options struct {
	OutputFormat Format       `json:"outputFormat,omitempty"`
	Quality      float64      `json:"quality,omitempty"`
	Video        VideoOptions `json:"videoOptions,omitempty"`
}

// DefaultOptions returns Options with every field set to its default.
func DefaultOptions() Options {
	return Options{
		OutputFormat: DefaultFormat,
		Quality:      DefaultQuality,
		Video: VideoOptions{
			StartTime: DefaultStartTime,
			Duration:  DefaultDuration,
		},
	}
}

// Normalize returns a copy with defaults filled in and out of range values
// pulled back into range. It never fails.
func (o Options) Normalize() Options {
	out := o

	if f, ok := ParseFormat(string(o.OutputFormat)); ok {
		out.OutputFormat = f
	} else {
		out.OutputFormat = DefaultFormat
	}

	switch {
	case o.Quality <= 0:
		out.Quality = DefaultQuality
	case o.Quality > 1:
		out.Quality = 1
	}

	if strings.TrimSpace(o.Video.StartTime) == "" {
		out.Video.StartTime = DefaultStartTime
	}
	if o.Video.Duration <= 0 {
		out.Video.Duration = DefaultDuration
	}

	return out
}

// ParseOptions decodes an options JSON document. Empty input yields defaults.
// A malformed document is an error; unknown fields are not.
func ParseOptions(data []byte) (Options, error) {
	var opts Options
	if len(strings.TrimSpace(string(data))) == 0 {
		return opts.Normalize(), nil
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	return opts.Normalize(), nil
}
