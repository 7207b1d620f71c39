package media

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status tracks a media item through its processing lifecycle.
// Valid transitions: UPLOADED -> PROCESSING -> {READY, FAILED}.
type Status string

const (
	StatusUploaded   Status = "UPLOADED"
	StatusProcessing Status = "PROCESSING"
	StatusReady      Status = "READY"
	StatusFailed     Status = "FAILED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusReady, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the edge s -> to exists in the status graph.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusUploaded:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusReady || to == StatusFailed
	}
	return false
}

// InvalidTransitionError is returned when an illegal status edge is attempted.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("media: invalid status transition %s -> %s", e.From, e.To)
}

// Item is a single piece of uploaded media and its processing state.
// Location holds the raw upload key until the item is READY, then the
// processed manifest key.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ContentType string    `json:"content_type"`
	Location    string    `json:"location"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transition validates and applies a status change.
func (i *Item) Transition(to Status) error {
	if !i.Status.CanTransition(to) {
		return &InvalidTransitionError{From: i.Status, To: to}
	}
	i.Status = to
	return nil
}

const (
	// ManifestName is the fixed name of the HLS playlist produced per item.
	ManifestName = "master.m3u8"

	processedPrefix = "processed"

	manifestExt = ".m3u8"
	segmentExt  = ".ts"

	ContentTypePlaylist = "application/x-mpegURL"
	ContentTypeSegment  = "video/MP2T"
	ContentTypeBinary   = "application/octet-stream"
)

// RawKey builds the storage key for a raw upload: millisecond timestamp
// prefix keeps keys collision-resistant while preserving the original name.
func RawKey(now time.Time, originalName string) string {
	return fmt.Sprintf("%d_%s", now.UnixMilli(), originalName)
}

// ArtifactKey builds the storage key for a processed artifact.
func ArtifactKey(mediaID, fileName string) string {
	return path.Join(processedPrefix, mediaID, fileName)
}

// ContentTypeFor maps an artifact file name to its media type purely by
// extension.
func ContentTypeFor(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case manifestExt:
		return ContentTypePlaylist
	case segmentExt:
		return ContentTypeSegment
	default:
		return ContentTypeBinary
	}
}
