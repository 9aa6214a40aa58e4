package convert

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MIME classes used for routing.
const (
	ClassImage = "image/"
	ClassVideo = "video/"
	ClassAudio = "audio/"
	ClassText  = "text/"
)

// Output media types that do not come from Format.
const (
	MIMEText   = "text/plain"
	MIMEBinary = "application/octet-stream"
	MIMEGIF    = "image/gif"
	MIMEMP3    = "audio/mpeg"
	MIMEMP4    = "video/mp4"
)

// mimeTypes maps lowercase extensions (with dot) to media types.
var mimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",

	// Audio
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".aac": "audio/aac",

	// Text
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
}

// MIMEByExt returns the media type registered for a file name's extension,
// or "" when the extension is unknown.
func MIMEByExt(name string) string {
	return mimeTypes[strings.ToLower(filepath.Ext(name))]
}

// ExtByMIME returns the preferred extension (without dot) for a media type,
// or "" when none is registered.
func ExtByMIME(mimeType string) string {
	mimeType = BaseMIME(mimeType)
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "video/mpeg":
		return "mpg"
	case "image/tiff":
		return "tiff"
	}
	for ext, m := range mimeTypes {
		if m == mimeType {
			return strings.TrimPrefix(ext, ".")
		}
	}
	return ""
}

// SniffMIME detects the media type from content.
// Parameters such as charset are dropped.
func SniffMIME(data []byte) string {
	return BaseMIME(mimetype.Detect(data).String())
}

// BaseMIME strips parameters and lowercases a media type.
func BaseMIME(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// HasClass reports whether mimeType belongs to the given class prefix.
func HasClass(mimeType, class string) bool {
	return strings.HasPrefix(BaseMIME(mimeType), class)
}
