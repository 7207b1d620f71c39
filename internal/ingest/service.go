package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vodforge/vodforge/internal/apperror"
	"github.com/vodforge/vodforge/internal/logger"
	"github.com/vodforge/vodforge/internal/media"
	"github.com/vodforge/vodforge/internal/metrics"
	"github.com/vodforge/vodforge/internal/storage"
	"github.com/vodforge/vodforge/internal/store"
	"github.com/vodforge/vodforge/internal/tracing"
	"github.com/vodforge/vodforge/internal/transcode"
)

// Broker enqueues a background job and returns its queue id.
type Broker interface {
	Enqueue(jobType string, payload any) (string, error)
}

// Upload describes one incoming source file.
type Upload struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Service accepts source uploads: blob to object storage first, then a
// metadata row, then a transcode job on the queue. Ordering matters; a
// blob with no row is a recoverable orphan, a row with no blob is a
// broken promise to the caller.
type Service struct {
	storage storage.Storage
	store   store.Store
	broker  Broker
}

func NewService(blobs storage.Storage, st store.Store, broker Broker) *Service {
	return &Service{storage: blobs, store: st, broker: broker}
}

// Ingest persists the upload and schedules processing. The returned item
// is in status UPLOADED with its location pointing at the raw blob.
func (s *Service) Ingest(ctx context.Context, up Upload) (media.Item, error) {
	log := logger.FromContext(ctx)

	rawKey := media.RawKey(time.Now(), up.FileName)

	if err := s.storage.Upload(ctx, rawKey, up.Data, up.ContentType, up.Size); err != nil {
		return media.Item{}, apperror.Wrap(fmt.Errorf("store upload blob: %w", err), apperror.ErrNotPersisted)
	}

	item := media.Item{
		Title:       up.Title,
		Description: up.Description,
		ContentType: up.ContentType,
		Location:    rawKey,
		Status:      media.StatusUploaded,
	}
	if err := s.store.Create(ctx, &item); err != nil {
		// The blob is already durable; remove it so a metadata failure
		// leaves no trace of the upload.
		if delErr := s.storage.Delete(ctx, rawKey); delErr != nil {
			metrics.OrphanedUploadsTotal.Inc()
			log.Error("orphaned blob after metadata failure", "key", rawKey, "error", delErr)
		}
		return media.Item{}, apperror.Wrap(fmt.Errorf("persist media item: %w", err), apperror.ErrNotPersisted)
	}

	spanCtx, span := tracing.StartJobEnqueueSpan(ctx, transcode.JobTypeTranscode)
	payload := transcode.NewTranscodePayload(spanCtx, item.ID)

	jobID, err := s.broker.Enqueue(transcode.JobTypeTranscode, payload)
	span.End()
	if err != nil {
		// Blob and row both exist but nothing will ever process them.
		// Count the orphan and surface the failure to the caller.
		metrics.OrphanedUploadsTotal.Inc()
		log.Error("transcode enqueue failed, upload orphaned",
			"media_id", item.ID.String(), "key", rawKey, "error", err)
		return media.Item{}, apperror.Wrap(
			fmt.Errorf("enqueue transcode: %w", err), apperror.ErrServiceUnavailable)
	}

	metrics.RecordJobEnqueued(transcode.JobTypeTranscode)
	log.Info("upload ingested",
		"media_id", item.ID.String(),
		"key", rawKey,
		"job_id", jobID,
		"size", up.Size)

	return item, nil
}
