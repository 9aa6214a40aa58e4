// Package storage provides scratch space for subprocess based conversions and
// optional publishing of conversion results to object storage.
// LocalStorage owns the scratch directory; S3Storage and GCSStorage embed it
// and add a publishing sink.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrPublishNotConfigured is returned when publishing is attempted without a
// configured object storage sink.
var ErrPublishNotConfigured = errors.New("storage: publishing is not configured")

// Scratch is temporary file space for tools that only operate on paths.
type Scratch interface {
	// SaveTemp writes data to a new temporary file and returns its path.
	// name is used as a hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// ReserveTemp creates an empty temporary file for a tool to overwrite.
	// ext, when not empty, becomes the file extension so tools that infer
	// the output container from the filename pick the right muxer.
	ReserveTemp(ctx context.Context, name, ext string) (path string, err error)

	// LoadTemp opens a temporary file. The caller closes the reader.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the given files and keeps going past failures.
	CleanupTemp(ctx context.Context, paths []string) error
}

// Publisher uploads a finished result and returns where it can be fetched.
type Publisher interface {
	// Publish stores data under key and returns its URL.
	// Returns ErrPublishNotConfigured when no sink is configured.
	Publish(ctx context.Context, key, contentType string, data io.Reader) (url string, err error)
}

// Storage combines scratch space with a publishing sink.
type Storage interface {
	Scratch
	Publisher
}
