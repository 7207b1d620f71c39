package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vodforge/vodforge/internal/apperror"
	"github.com/vodforge/vodforge/internal/logger"
	"github.com/vodforge/vodforge/internal/media"
	"github.com/vodforge/vodforge/internal/storage"
	"github.com/vodforge/vodforge/internal/store"
	"github.com/vodforge/vodforge/internal/transcode"
)

type mockBroker struct {
	jobType string
	payload any
	calls   int
	err     error
}

func (b *mockBroker) Enqueue(jobType string, payload any) (string, error) {
	b.calls++
	b.jobType = jobType
	b.payload = payload
	if b.err != nil {
		return "", b.err
	}
	return "queue-1", nil
}

func testUpload() Upload {
	return Upload{
		Title:       "launch keynote",
		Description: "full recording",
		FileName:    "keynote.mp4",
		ContentType: "video/mp4",
		Size:        12,
		Data:        strings.NewReader("video bytes!"),
	}
}

func testContext() context.Context {
	return logger.WithLogger(context.Background(), logger.NewTestLogger())
}

func TestIngest(t *testing.T) {
	ctx := testContext()
	blobs := storage.NewMemoryStorage()
	st := store.NewMemoryStore()
	broker := &mockBroker{}
	svc := NewService(blobs, st, broker)

	item, err := svc.Ingest(ctx, testUpload())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if item.Status != media.StatusUploaded {
		t.Errorf("status = %s, want UPLOADED", item.Status)
	}
	if !strings.HasSuffix(item.Location, "_keynote.mp4") {
		t.Errorf("location = %q, want timestamped raw key", item.Location)
	}

	data, ok := blobs.GetData(item.Location)
	if !ok {
		t.Fatalf("blob %s not stored", item.Location)
	}
	if string(data) != "video bytes!" {
		t.Errorf("blob = %q", data)
	}

	stored, err := st.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Title != "launch keynote" || stored.ContentType != "video/mp4" {
		t.Errorf("stored item = %+v", stored)
	}

	if broker.jobType != transcode.JobTypeTranscode {
		t.Errorf("job type = %q, want %q", broker.jobType, transcode.JobTypeTranscode)
	}
	payload, ok := broker.payload.(transcode.TranscodePayload)
	if !ok {
		t.Fatalf("payload type = %T", broker.payload)
	}
	if payload.MediaID != item.ID {
		t.Errorf("payload media id = %s, want %s", payload.MediaID, item.ID)
	}
}

func TestIngestBlobFailureLeavesNothing(t *testing.T) {
	ctx := testContext()
	blobs := storage.NewMemoryStorage()
	blobs.UploadErr = errors.New("bucket gone")
	st := store.NewMemoryStore()
	broker := &mockBroker{}
	svc := NewService(blobs, st, broker)

	_, err := svc.Ingest(ctx, testUpload())
	if err == nil {
		t.Fatal("expected error from failed blob upload")
	}
	if !apperror.Is(err, apperror.ErrNotPersisted) {
		t.Errorf("error code = %s, want %s", apperror.Code(err), apperror.ErrNotPersisted.Code)
	}
	if broker.calls != 0 {
		t.Errorf("job enqueued after blob failure")
	}
	if blobs.Count() != 0 {
		t.Errorf("blobs stored after failure: %v", blobs.Keys())
	}
}

func TestIngestMetadataFailureRemovesBlob(t *testing.T) {
	ctx := testContext()
	blobs := storage.NewMemoryStorage()
	st := store.NewMemoryStore()
	st.CreateErr = errors.New("db down")
	broker := &mockBroker{}
	svc := NewService(blobs, st, broker)

	_, err := svc.Ingest(ctx, testUpload())
	if err == nil {
		t.Fatal("expected error from failed metadata write")
	}
	if !apperror.Is(err, apperror.ErrNotPersisted) {
		t.Errorf("error code = %s, want %s", apperror.Code(err), apperror.ErrNotPersisted.Code)
	}
	if broker.calls != 0 {
		t.Errorf("job enqueued after metadata failure")
	}
	if blobs.Count() != 0 {
		t.Errorf("blob left behind after metadata failure: %v", blobs.Keys())
	}
}

func TestIngestEnqueueFailure(t *testing.T) {
	ctx := testContext()
	blobs := storage.NewMemoryStorage()
	st := store.NewMemoryStore()
	broker := &mockBroker{err: errors.New("redis down")}
	svc := NewService(blobs, st, broker)

	_, err := svc.Ingest(ctx, testUpload())
	if err == nil {
		t.Fatal("expected error from failed enqueue")
	}
	if !apperror.Is(err, apperror.ErrServiceUnavailable) {
		t.Errorf("error code = %s, want %s", apperror.Code(err), apperror.ErrServiceUnavailable.Code)
	}

	// Blob and metadata stay behind for operator recovery.
	if blobs.Count() != 1 {
		t.Errorf("blob count = %d, want 1", blobs.Count())
	}
}
