package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestGCSStorage_Publish_MockServer(t *testing.T) {
	var uploads atomic.Int32

	// Minimal JSON API upload endpoint
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST method, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/b/test-bucket/o") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if !bytes.Contains(body, []byte("gcs content")) {
			t.Errorf("upload body missing payload: %s", string(body))
		}
		uploads.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"bucket":"test-bucket","name":"out/notes.txt","contentType":"text/plain"}`)
	}))
	defer server.Close()

	tempDir := filepath.Join(os.TempDir(), "mediaconvert_gcs_test_"+randomSuffix())
	defer os.RemoveAll(tempDir)

	ctx := context.Background()
	storage, err := NewGCSStorage(ctx, tempDir, GCSConfig{
		Bucket:   "test-bucket",
		Endpoint: server.URL,
	})
	if err != nil {
		t.Fatalf("NewGCSStorage() error = %v", err)
	}
	defer storage.Close()

	url, err := storage.Publish(ctx, "out/notes.txt", "text/plain", bytes.NewReader([]byte("gcs content")))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if url != "https://storage.googleapis.com/test-bucket/out/notes.txt" {
		t.Errorf("url = %v", url)
	}
	if uploads.Load() == 0 {
		t.Error("expected an upload request")
	}
}

func TestGCSStorage_InheritsLocalStorage(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), "mediaconvert_gcs_test_"+randomSuffix())
	defer os.RemoveAll(tempDir)

	ctx := context.Background()
	storage, err := NewGCSStorage(ctx, tempDir, GCSConfig{
		Bucket:   "test-bucket",
		Endpoint: "http://localhost:4443",
	})
	if err != nil {
		t.Fatalf("NewGCSStorage() error = %v", err)
	}
	defer storage.Close()

	if storage.TempDir() != tempDir {
		t.Errorf("TempDir() = %v, want %v", storage.TempDir(), tempDir)
	}

	path, err := storage.ReserveTemp(ctx, "clip", "mp4")
	if err != nil {
		t.Fatalf("ReserveTemp() error = %v", err)
	}
	if err := storage.CleanupTemp(ctx, []string{path}); err != nil {
		t.Fatalf("CleanupTemp() error = %v", err)
	}
}
