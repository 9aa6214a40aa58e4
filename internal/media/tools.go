package media

import "github.com/maauso/mediaconvert-api/internal/convert"

// Op enumerates the image operations.
type Op int

const (
	// OpConvert re-encodes the image into a target format.
	OpConvert Op = iota + 1
	// OpCompress re-encodes as JPEG at the requested quality.
	OpCompress
	// OpEnhance applies automatic levels plus a fixed contrast boost.
	OpEnhance
	// OpGrayscale desaturates while preserving luminance and alpha.
	OpGrayscale
	// OpRotate90 rotates clockwise by 90 degrees.
	OpRotate90
	// OpFlipH mirrors along the vertical axis.
	OpFlipH
	// OpFlipV mirrors along the horizontal axis.
	OpFlipV
	// OpBlur applies a Gaussian blur.
	OpBlur
	// OpBrighten scales every color channel by a fixed factor.
	OpBrighten
	// OpPixelate fills fixed size blocks with their average color.
	OpPixelate
	// OpBase64 encodes the raw input bytes as base64 text.
	OpBase64
	// OpRemoveWhite makes near-white pixels fully transparent.
	OpRemoveWhite
)

var opNames = map[Op]string{
	OpConvert:     "convert",
	OpCompress:    "compress",
	OpEnhance:     "enhance",
	OpGrayscale:   "grayscale",
	OpRotate90:    "rotate-90",
	OpFlipH:       "flip-horizontal",
	OpFlipV:       "flip-vertical",
	OpBlur:        "blur",
	OpBrighten:    "brighten",
	OpPixelate:    "pixelate",
	OpBase64:      "to-base64",
	OpRemoveWhite: "remove-white-background",
}

// String returns the operation name.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// Operation is the resolved form of an image tool id.
type Operation struct {
	Op Op
	// Format pins the output format for format conversion tools.
	// Empty means "use Options.OutputFormat".
	Format convert.Format
}

var toolTable = map[convert.ToolID]Operation{
	"to-png":                  {Op: OpConvert, Format: convert.FormatPNG},
	"to-jpg":                  {Op: OpConvert, Format: convert.FormatJPEG},
	"to-jpeg":                 {Op: OpConvert, Format: convert.FormatJPEG},
	"to-webp":                 {Op: OpConvert, Format: convert.FormatWebP},
	"convert-image":           {Op: OpConvert},
	"compress-image":          {Op: OpCompress},
	"enhance-image":           {Op: OpEnhance},
	"grayscale-image":         {Op: OpGrayscale},
	"rotate-image":            {Op: OpRotate90},
	"rotate-90":               {Op: OpRotate90},
	"flip-horizontal":         {Op: OpFlipH},
	"flip-vertical":           {Op: OpFlipV},
	"blur-image":              {Op: OpBlur},
	"brighten-image":          {Op: OpBrighten},
	"pixelate-image":          {Op: OpPixelate},
	"image-to-base64":         {Op: OpBase64},
	"remove-white-background": {Op: OpRemoveWhite},
}

// Lookup resolves an image tool id. Unknown ids report false so the
// dispatcher can fall through to the generic converter.
func Lookup(tool convert.ToolID) (Operation, bool) {
	op, ok := toolTable[tool]
	return op, ok
}
