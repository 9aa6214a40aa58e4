package transcode

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidTimecode is returned when a start time cannot be parsed.
var ErrInvalidTimecode = errors.New("invalid timecode")

// timecodeRe matches [[HH:]MM:]SS[.fraction].
var timecodeRe = regexp.MustCompile(`^(?:(?:(\d+):)?(\d{1,2}):)?(\d+)(?:\.(\d+))?$`)

// ParseTimecode converts "HH:MM:SS.ms", "MM:SS" or plain seconds into
// seconds. An empty string is zero.
func ParseTimecode(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	matches := timecodeRe.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, s)
	}

	hours, _ := strconv.ParseFloat(orZero(matches[1]), 64)
	minutes, _ := strconv.ParseFloat(orZero(matches[2]), 64)
	seconds, _ := strconv.ParseFloat(matches[3], 64)

	// Fractional part, any precision
	frac := 0.0
	if matches[4] != "" {
		f, _ := strconv.ParseFloat(matches[4], 64)
		frac = f / math.Pow(10, float64(len(matches[4])))
	}

	if matches[2] != "" && (minutes >= 60 || seconds >= 60) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, s)
	}

	return hours*3600 + minutes*60 + seconds + frac, nil
}

// FormatTimecode renders seconds as HH:MM:SS.mmm for ffmpeg arguments.
func FormatTimecode(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int64(math.Round(sec * 1000))
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
