package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/job-queue/pkg/job"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vodforge/vodforge/internal/api"
	"github.com/vodforge/vodforge/internal/deliver"
	"github.com/vodforge/vodforge/internal/health"
	"github.com/vodforge/vodforge/internal/ingest"
	"github.com/vodforge/vodforge/internal/media"
	"github.com/vodforge/vodforge/internal/storage"
	"github.com/vodforge/vodforge/internal/store"
	"github.com/vodforge/vodforge/internal/transcode"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		fmt.Println("Skipping integration tests: TEST_DATABASE_URL not set")
		os.Exit(0)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		fmt.Printf("Failed to ping database: %v\n", err)
		os.Exit(1)
	}
	testPool = pool

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

// capturingBroker records enqueued jobs instead of publishing them, so
// the test can hand them to the worker handler directly.
type capturingBroker struct {
	jobs []*job.Job
}

func (b *capturingBroker) Enqueue(jobType string, payload any) (string, error) {
	j, err := job.New(jobType, payload)
	if err != nil {
		return "", err
	}
	b.jobs = append(b.jobs, j)
	return j.ID, nil
}

// fakeEncoder stands in for ffmpeg and writes a minimal HLS rendition.
type fakeEncoder struct{}

func (fakeEncoder) Encode(ctx context.Context, inputPath, outputDir string) error {
	files := map[string][]byte{
		media.ManifestName: []byte("#EXTM3U\n#EXTINF:10.0,\nsegment_000.ts\n#EXT-X-ENDLIST\n"),
		"segment_000.ts":   []byte("segment zero"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(outputDir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func TestUploadTranscodeStream(t *testing.T) {
	ctx := context.Background()

	mediaStore := store.NewPostgresStore(testPool)
	if err := mediaStore.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	blobs := storage.NewMemoryStorage()
	broker := &capturingBroker{}

	router := api.NewRouter(&api.Config{
		Ingest:        ingest.NewService(blobs, mediaStore, broker),
		Deliver:       deliver.NewGateway(blobs),
		Store:         mediaStore,
		Checker:       health.NewChecker(testPool, nil).WithStorage(blobs),
		MaxUploadSize: 64 << 20,
	})

	// Upload a source file.
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="clip.mp4"`)
	h.Set("Content-Type", "video/mp4")
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	_, _ = io.WriteString(part, "raw video bytes")
	_ = w.WriteField("title", "integration clip")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var item media.Item
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if item.Status != media.StatusUploaded {
		t.Fatalf("status = %s, want UPLOADED", item.Status)
	}
	if len(broker.jobs) != 1 {
		t.Fatalf("enqueued jobs = %d, want 1", len(broker.jobs))
	}

	// Run the transcode job the way the worker pool would.
	handler := transcode.TranscodeHandler(&transcode.Dependencies{
		Storage:      blobs,
		Store:        mediaStore,
		Encoder:      fakeEncoder{},
		WorkspaceDir: t.TempDir(),
	})
	if err := handler(ctx, broker.jobs[0]); err != nil {
		t.Fatalf("transcode handler: %v", err)
	}

	// Status should now be READY with the manifest location.
	req = httptest.NewRequest(http.MethodGet, "/api/videos/"+item.ID.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
	var ready media.Item
	_ = json.NewDecoder(rec.Body).Decode(&ready)
	if ready.Status != media.StatusReady {
		t.Errorf("status = %s, want READY", ready.Status)
	}

	// The manifest should stream back with the playlist content type.
	req = httptest.NewRequest(http.MethodGet, "/api/videos/"+item.ID.String()+"/master.m3u8", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stream endpoint = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/x-mpegURL" {
		t.Errorf("content type = %q", got)
	}

	// Redelivering the same job must not reprocess the item.
	redelivered, err := job.New(transcode.JobTypeTranscode, transcode.TranscodePayload{MediaID: item.ID})
	if err != nil {
		t.Fatalf("job.New: %v", err)
	}
	if err := handler(ctx, redelivered); err != nil {
		t.Errorf("redelivery: %v", err)
	}
}
