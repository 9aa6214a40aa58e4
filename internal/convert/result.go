// Package convert holds the data model shared by the conversion backends:
// input files, options, results, output naming and the error taxonomy.
package convert

import (
	"path/filepath"
	"strings"
)

// ToolID identifies a requested operation, e.g. "rotate-image".
type ToolID string

// CategoryID is the coarse routing key of a request.
type CategoryID string

// Known categories. Any other value is routed to the fallback converter.
const (
	CategoryImage CategoryID = "image"
	CategoryVideo CategoryID = "video"
	CategoryHash  CategoryID = "hash"
)

// Result is the single artifact produced by a successful conversion.
// Ownership passes to the caller; nothing in the engine keeps a reference.
type Result struct {
	Blob         []byte `json:"-"`
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	OriginalSize int64  `json:"originalSize"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	// Message is a human readable description of what was done.
	Message string `json:"message,omitempty"`
	// Placeholder is set when the blob is demo content and not a real
	// conversion, e.g. the hash category's non-cryptographic value.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Artifact is what a backend hands to Package.
type Artifact struct {
	Data        []byte
	MIME        string
	Ext         string
	Message     string
	Placeholder bool
}

// Package wraps backend output into a Result named after the original file.
func Package(file InputFile, originalSize int64, a Artifact) *Result {
	return &Result{
		Blob:         a.Data,
		Name:         OutputName(file.Name, a.Ext),
		OriginalName: file.Name,
		OriginalSize: originalSize,
		Type:         a.MIME,
		Size:         int64(len(a.Data)),
		Message:      a.Message,
		Placeholder:  a.Placeholder,
	}
}

// OutputName replaces the extension of name with ext.
// Names without an extension get ext appended; an empty name becomes "output".
func OutputName(name, ext string) string {
	base := StripExt(filepath.Base(name))
	if base == "" || base == "." || base == "/" {
		base = "output"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// StripExt removes the final extension from name.
func StripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
