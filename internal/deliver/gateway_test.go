package deliver

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/vodforge/vodforge/internal/apperror"
	"github.com/vodforge/vodforge/internal/logger"
	"github.com/vodforge/vodforge/internal/media"
	"github.com/vodforge/vodforge/internal/storage"
)

func testContext() context.Context {
	return logger.WithLogger(context.Background(), logger.NewTestLogger())
}

func TestResolveManifest(t *testing.T) {
	ctx := testContext()
	blobs := storage.NewMemoryStorage()
	id := uuid.New()
	key := media.ArtifactKey(id.String(), media.ManifestName)
	if err := blobs.Upload(ctx, key, strings.NewReader("#EXTM3U\n"), media.ContentTypePlaylist, 8); err != nil {
		t.Fatalf("seed: %v", err)
	}

	g := NewGateway(blobs)
	reader, contentType, err := g.Resolve(ctx, id, media.ManifestName)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer reader.Close()

	if contentType != "application/x-mpegURL" {
		t.Errorf("content type = %q, want application/x-mpegURL", contentType)
	}
	data, _ := io.ReadAll(reader)
	if string(data) != "#EXTM3U\n" {
		t.Errorf("body = %q", data)
	}
}

func TestResolveSegmentContentType(t *testing.T) {
	ctx := testContext()
	blobs := storage.NewMemoryStorage()
	id := uuid.New()
	key := media.ArtifactKey(id.String(), "segment_000.ts")
	if err := blobs.Upload(ctx, key, strings.NewReader("seg"), media.ContentTypeSegment, 3); err != nil {
		t.Fatalf("seed: %v", err)
	}

	g := NewGateway(blobs)
	reader, contentType, err := g.Resolve(ctx, id, "segment_000.ts")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	reader.Close()

	if contentType != "video/MP2T" {
		t.Errorf("content type = %q, want video/MP2T", contentType)
	}
}

func TestResolveMissingArtifact(t *testing.T) {
	g := NewGateway(storage.NewMemoryStorage())

	_, _, err := g.Resolve(testContext(), uuid.New(), media.ManifestName)
	if !apperror.Is(err, apperror.ErrArtifactNotFound) {
		t.Errorf("err = %v, want artifact not found", err)
	}
}

func TestResolveStorageFailureMapsToNotFound(t *testing.T) {
	blobs := storage.NewMemoryStorage()
	blobs.DownloadErr = errors.New("connection reset")
	g := NewGateway(blobs)

	_, _, err := g.Resolve(testContext(), uuid.New(), media.ManifestName)
	if !apperror.Is(err, apperror.ErrArtifactNotFound) {
		t.Errorf("err = %v, want artifact not found", err)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	ctx := testContext()
	blobs := storage.NewMemoryStorage()
	g := NewGateway(blobs)

	for _, name := range []string{"", ".", "..", "../other/master.m3u8", "a/b.ts", `a\b.ts`} {
		if _, _, err := g.Resolve(ctx, uuid.New(), name); !apperror.Is(err, apperror.ErrArtifactNotFound) {
			t.Errorf("Resolve(%q) err = %v, want artifact not found", name, err)
		}
	}
}
