// Package fallback is the last resort converter for requests no dedicated
// engine handles.
//
// Its hash and binary outputs are placeholders. The hash category emits a
// 64 character hex value built from xxhash, which is NOT a cryptographic
// digest, and binary inputs get a labeled stub. Both are marked with
// Artifact.Placeholder so callers can tell them apart from real output.
package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/maauso/mediaconvert-api/internal/convert"
)

// ToolPrefix marks tools whose suffix names the output extension.
const ToolPrefix = "to-"

// Default extensions when the tool does not name one.
const (
	HashExt    = "txt"
	DefaultExt = "converted"
)

// PlaceholderLabel prefixes every placeholder digest.
const PlaceholderLabel = "PLACEHOLDER"

// Converter applies the generic content transforms.
type Converter struct {
	logger *slog.Logger
}

// New creates a Converter.
func New(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{logger: logger}
}

// Convert transforms data according to the category and the MIME type of
// file. It never fails for well-formed input.
func (c *Converter) Convert(ctx context.Context, file convert.InputFile, data []byte, tool convert.ToolID, category convert.CategoryID) (convert.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return convert.Artifact{}, err
	}

	ext := Extension(tool, category)

	var a convert.Artifact
	switch {
	case category == convert.CategoryHash:
		a = convert.Artifact{
			Data:        []byte(fmt.Sprintf("%s %s (non-cryptographic, xxhash64): %s\n", PlaceholderLabel, tool, PlaceholderDigest(data))),
			MIME:        convert.MIMEText,
			Message:     "Placeholder digest, not a cryptographic hash",
			Placeholder: true,
		}
	case convert.HasClass(file.MimeType, convert.ClassText):
		// A Caser holds state, one per call
		a = convert.Artifact{
			Data:    cases.Upper(language.Und).Bytes(data),
			MIME:    convert.MIMEText,
			Message: "Text converted to upper case",
		}
	default:
		a = convert.Artifact{
			Data:        []byte(stub(file, tool, len(data))),
			MIME:        convert.MIMEBinary,
			Message:     "No converter available, placeholder output",
			Placeholder: true,
		}
	}
	a.Ext = ext

	c.logger.Debug("fallback conversion",
		slog.String("tool", string(tool)),
		slog.String("category", string(category)),
		slog.String("mime", file.MimeType),
		slog.Bool("placeholder", a.Placeholder),
	)
	return a, nil
}

// Extension derives the output extension: "to-X" yields lower(X), otherwise
// txt for the hash category and "converted" for everything else.
func Extension(tool convert.ToolID, category convert.CategoryID) string {
	if suffix, ok := strings.CutPrefix(string(tool), ToolPrefix); ok && suffix != "" {
		return strings.ToLower(suffix)
	}
	if category == convert.CategoryHash {
		return HashExt
	}
	return DefaultExt
}

// PlaceholderDigest returns 64 lowercase hex characters derived from data.
// Four seeded xxhash64 sums are concatenated. The value is stable for equal
// input but has no cryptographic strength.
func PlaceholderDigest(data []byte) string {
	var b strings.Builder
	b.Grow(64)
	for seed := byte(0); seed < 4; seed++ {
		d := xxhash.New()
		_, _ = d.Write(data)
		_, _ = d.Write([]byte{seed})
		fmt.Fprintf(&b, "%016x", d.Sum64())
	}
	return b.String()
}

func stub(file convert.InputFile, tool convert.ToolID, size int) string {
	mime := file.MimeType
	if mime == "" {
		mime = "unknown"
	}
	return fmt.Sprintf("%s OUTPUT\nsource: %s\ntype: %s\nsize: %d bytes\ntool: %s\nNo converter is available for this input; this file is a stand-in.\n",
		PlaceholderLabel, file.Name, mime, size, tool)
}
