package convert

import (
	"context"
	"errors"
)

// Static errors shared by every conversion backend.
// Backends wrap these with fmt.Errorf("%w: ...") so callers can match with errors.Is.
var (
	// ErrUnsupportedTool is returned when no backend matches the category and tool.
	ErrUnsupportedTool = errors.New("convert: unsupported tool")
	// ErrEngineNotReady is returned when a video operation is requested before
	// the transcoding runtime reached the ready state.
	ErrEngineNotReady = errors.New("convert: video engine not ready")
	// ErrDecode is returned when the input bytes cannot be parsed as media.
	ErrDecode = errors.New("convert: decode failed")
	// ErrTranscode is returned when a backend reports a processing failure.
	ErrTranscode = errors.New("convert: processing failed")
	// ErrUnsupportedCodec is returned when the container or codec of a video
	// input cannot be handled.
	ErrUnsupportedCodec = errors.New("convert: unsupported codec")
	// ErrIO is returned when reading the input byte stream fails.
	ErrIO = errors.New("convert: read failed")
)

// UserMessage maps an error from Dispatch to a short message suitable for
// showing to an end user. Each failure class gets its own wording.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEngineNotReady):
		return "The video engine is still loading. Try again in a moment."
	case errors.Is(err, ErrUnsupportedTool):
		return "This tool is not available for the selected file."
	case errors.Is(err, ErrUnsupportedCodec):
		return "Wrong file type: the video format or codec is not supported."
	case errors.Is(err, ErrDecode):
		return "Wrong file type: the file could not be read as media."
	case errors.Is(err, ErrIO):
		return "The file could not be read. Please upload it again."
	case errors.Is(err, context.DeadlineExceeded):
		return "Processing took too long and was stopped."
	case errors.Is(err, context.Canceled):
		return "Processing was cancelled."
	default:
		return "Processing failed. Please try a different file or tool."
	}
}
