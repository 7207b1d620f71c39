package transcode

import (
	"context"

	"github.com/google/uuid"
	"github.com/vodforge/vodforge/internal/tracing"
)

// JobTypeTranscode is the queue channel name for transcode jobs.
const JobTypeTranscode = "transcode"

// TranscodePayload is the queue message body: a pointer into the media
// graph plus the producer's trace context. The worker loads everything
// else from the metadata store.
type TranscodePayload struct {
	MediaID uuid.UUID            `json:"media_id"`
	Trace   tracing.TraceCarrier `json:"trace,omitempty"`
}

func NewTranscodePayload(ctx context.Context, mediaID uuid.UUID) TranscodePayload {
	return TranscodePayload{
		MediaID: mediaID,
		Trace:   tracing.InjectTraceContext(ctx),
	}
}
