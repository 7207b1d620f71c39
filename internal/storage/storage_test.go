package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryStorageUploadDownload(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	data := []byte("segment bytes")
	if err := s.Upload(ctx, "processed/id/segment_000.ts", bytes.NewReader(data), "video/MP2T", int64(len(data))); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	rc, err := s.Download(ctx, "processed/id/segment_000.ts")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("downloaded %q, want %q", got, data)
	}

	ct, ok := s.GetContentType("processed/id/segment_000.ts")
	if !ok || ct != "video/MP2T" {
		t.Errorf("content type = %q, %v", ct, ok)
	}
}

func TestMemoryStorageDownloadMissing(t *testing.T) {
	s := NewMemoryStorage()

	_, err := s.Download(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorageUploadEmptyKey(t *testing.T) {
	s := NewMemoryStorage()

	err := s.Upload(context.Background(), "", strings.NewReader("x"), "text/plain", 1)
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("error = %v, want ErrInvalidKey", err)
	}
}

func TestMemoryStorageOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	if err := s.Upload(ctx, "k", strings.NewReader("first"), "text/plain", 5); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := s.Upload(ctx, "k", strings.NewReader("second"), "text/plain", 6); err != nil {
		t.Fatalf("Upload overwrite: %v", err)
	}

	data, _ := s.GetData("k")
	if string(data) != "second" {
		t.Errorf("data = %q, want last write to win", data)
	}
	if s.Count() != 1 {
		t.Errorf("count = %d, want 1", s.Count())
	}
}

func TestMemoryStorageDeleteAndExists(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	if err := s.Upload(ctx, "k", strings.NewReader("x"), "text/plain", 1); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := s.Exists(ctx, "k")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exists, err = s.Exists(ctx, "k")
	if err != nil || exists {
		t.Fatalf("Exists after delete = %v, %v", exists, err)
	}
}

func TestMemoryStorageCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStorage()
	if err := s.Upload(ctx, "k", strings.NewReader("x"), "text/plain", 1); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, err := s.Download(ctx, "k"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
