package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// InputFile is the caller owned source of a conversion.
// The engine only reads Body; it never writes to or closes it.
type InputFile struct {
	// Name is the original file name, e.g. "photo.png".
	Name string
	// MimeType is the declared media type. When empty it is sniffed from content.
	MimeType string
	// Size is the declared size in bytes.
	Size int64
	// Body is the readable byte stream.
	Body io.Reader
}

// NewInputFile wraps in-memory bytes as an InputFile.
func NewInputFile(name, mimeType string, data []byte) InputFile {
	return InputFile{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Body:     bytes.NewReader(data),
	}
}

// OpenInputFile reads a file from disk into an InputFile.
// The media type is resolved from the extension, then from content.
func OpenInputFile(path string) (InputFile, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the operator
	if err != nil {
		return InputFile{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	mimeType := MIMEByExt(path)
	if mimeType == "" {
		mimeType = SniffMIME(data)
	}

	return NewInputFile(filepath.Base(path), mimeType, data), nil
}

// ReadAll drains Body. Read failures are reported as ErrIO.
func (f InputFile) ReadAll() ([]byte, error) {
	if f.Body == nil {
		return nil, fmt.Errorf("%w: %s has no body", ErrIO, f.Name)
	}
	data, err := io.ReadAll(f.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, f.Name, err)
	}
	return data, nil
}
