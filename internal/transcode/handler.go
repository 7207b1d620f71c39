package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/job-queue/pkg/job"
	"github.com/abdul-hamid-achik/job-queue/pkg/middleware"
	"github.com/vodforge/vodforge/internal/logger"
	"github.com/vodforge/vodforge/internal/media"
	"github.com/vodforge/vodforge/internal/metrics"
	"github.com/vodforge/vodforge/internal/storage"
	"github.com/vodforge/vodforge/internal/store"
	"github.com/vodforge/vodforge/internal/tracing"
)

type Dependencies struct {
	Storage      storage.Storage
	Store        store.Store
	Encoder      Encoder
	WorkspaceDir string
}

// TranscodeHandler runs the media state machine for one job delivery.
//
// Redelivery policy: READY and FAILED are terminal (skip), PROCESSING is
// presumed live on another consumer (skip). Only the winner of the atomic
// UPLOADED -> PROCESSING transition does work, so concurrent redeliveries
// for one id cannot duplicate it. Every failure past that transition marks
// the item FAILED before returning, and returns permanently so the broker
// dead-letters instead of redelivering against a terminal record.
func TranscodeHandler(deps *Dependencies) func(context.Context, *job.Job) error {
	return func(ctx context.Context, j *job.Job) error {
		log := logger.FromContext(ctx).With("job_id", j.ID, "job_type", JobTypeTranscode)
		log.Info("job started")
		start := time.Now()

		var payload TranscodePayload
		if err := j.UnmarshalPayload(&payload); err != nil {
			log.Error("invalid payload", "error", err)
			return middleware.Permanent(fmt.Errorf("invalid payload: %w", err))
		}

		ctx = tracing.ExtractTraceContext(ctx, payload.Trace)
		ctx, span := tracing.StartJobSpan(ctx, JobTypeTranscode, j.ID)
		defer span.End()

		log = log.With("media_id", payload.MediaID.String())
		ctx = logger.WithLogger(ctx, log)

		item, err := deps.Store.Get(ctx, payload.MediaID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("media item does not exist, dropping job")
				return middleware.Permanent(fmt.Errorf("load media item %s: %w", payload.MediaID, err))
			}
			log.Error("failed to load media item", "error", err)
			return fmt.Errorf("load media item %s: %w", payload.MediaID, err)
		}

		switch item.Status {
		case media.StatusReady:
			log.Info("media item already processed, redelivery is a no-op")
			return nil
		case media.StatusProcessing:
			log.Warn("media item already in flight on another consumer, skipping")
			return nil
		case media.StatusFailed:
			log.Warn("media item in terminal FAILED state, skipping")
			return nil
		}

		won, err := deps.Store.BeginProcessing(ctx, item.ID)
		if err != nil {
			log.Error("failed to begin processing", "error", err)
			return fmt.Errorf("begin processing %s: %w", item.ID, err)
		}
		if !won {
			log.Warn("lost the processing transition race, skipping")
			return nil
		}
		item.Status = media.StatusProcessing

		if err := runPipeline(ctx, deps, &item); err != nil {
			tracing.RecordError(ctx, err)
			markFailed(ctx, deps.Store, &item)
			log.Error("job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
			return middleware.Permanent(err)
		}

		log.Info("job completed", "duration_ms", time.Since(start).Milliseconds(), "location", item.Location)
		return nil
	}
}

// runPipeline covers download through republish. The caller owns the
// PROCESSING -> FAILED transition on error; on success the item has been
// persisted as READY.
func runPipeline(ctx context.Context, deps *Dependencies, item *media.Item) error {
	log := logger.FromContext(ctx)

	ws, err := NewWorkspace(deps.WorkspaceDir, item.ID.String())
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			log.Warn("workspace cleanup incomplete", "workspace", ws.Root, "error", err)
		}
	}()

	reader, err := deps.Storage.Download(ctx, item.Location)
	if err != nil {
		return fmt.Errorf("download source %s: %w", item.Location, err)
	}
	written, err := ws.WriteInput(reader)
	if cerr := reader.Close(); cerr != nil {
		log.Warn("failed to close source reader", "error", cerr)
	}
	if err != nil {
		return err
	}
	log.Debug("source downloaded", "bytes", written, "workspace", ws.Root)

	encodeStart := time.Now()
	if err := deps.Encoder.Encode(ctx, ws.InputPath, ws.Root); err != nil {
		return err
	}
	metrics.TranscodeDuration.Observe(time.Since(encodeStart).Seconds())

	artifacts, err := ws.Artifacts()
	if err != nil {
		return err
	}

	manifestSeen := false
	for _, path := range artifacts {
		name := filepath.Base(path)
		if name == media.ManifestName {
			manifestSeen = true
		}
		if err := uploadArtifact(ctx, deps.Storage, item.ID.String(), path); err != nil {
			// One incomplete artifact poisons the whole rendition, so
			// the batch aborts rather than best-efforting the rest.
			metrics.ArtifactsUploadedTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("upload artifact %s: %w", name, err)
		}
		metrics.ArtifactsUploadedTotal.WithLabelValues("success").Inc()
	}
	if !manifestSeen {
		return fmt.Errorf("%w: encoder produced no %s", ErrEncodeFailed, media.ManifestName)
	}
	log.Debug("artifacts uploaded", "count", len(artifacts))

	// Persist READY on a copy so a failed persist leaves the local item in
	// PROCESSING, where the caller's FAILED transition is still legal.
	ready := *item
	ready.Location = media.ArtifactKey(item.ID.String(), media.ManifestName)
	if err := ready.Transition(media.StatusReady); err != nil {
		return err
	}
	if err := deps.Store.Update(ctx, &ready); err != nil {
		return fmt.Errorf("persist READY status: %w", err)
	}
	*item = ready
	return nil
}

func uploadArtifact(ctx context.Context, st storage.Storage, mediaID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}

	name := filepath.Base(path)
	return st.Upload(ctx, media.ArtifactKey(mediaID, name), f, media.ContentTypeFor(name), info.Size())
}

func markFailed(ctx context.Context, st store.Store, item *media.Item) {
	log := logger.FromContext(ctx)

	if err := item.Transition(media.StatusFailed); err != nil {
		log.Error("cannot mark media item failed", "status", string(item.Status), "error", err)
		return
	}
	if err := st.Update(ctx, item); err != nil {
		log.Error("failed to persist FAILED status", "error", err)
	}
}
