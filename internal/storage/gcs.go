package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig holds the configuration for Google Cloud Storage.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string // Optional: service account key file; ADC otherwise
	Endpoint        string // Optional: emulator or private endpoint, unauthenticated
}

// GCSStorage wraps LocalStorage and publishes results to a GCS bucket.
type GCSStorage struct {
	*LocalStorage
	client *gcs.Client
	bucket string
}

// NewGCSStorage creates a GCSStorage. The client is created once and reused
// for every upload; call Close to release it.
func NewGCSStorage(ctx context.Context, tempDir string, cfg GCSConfig) (*GCSStorage, error) {
	local, err := NewLocalStorage(tempDir)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return &GCSStorage{
		LocalStorage: local,
		client:       client,
		bucket:       cfg.Bucket,
	}, nil
}

// Publish streams data into the bucket under key and returns the object URL.
func (s *GCSStorage) Publish(ctx context.Context, key, contentType string, data io.Reader) (string, error) {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ContentDisposition = mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)})
	wc.CacheControl = resultCacheControl

	if _, err := io.Copy(wc, data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("upload to GCS: %w", err)
	}

	// Close completes the upload
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("upload to GCS: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key), nil
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
