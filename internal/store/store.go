package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vodforge/vodforge/internal/media"
)

var ErrNotFound = errors.New("store: media item not found")

// Store is the metadata load/save contract for media items.
type Store interface {
	// Create persists a new item, filling in its generated id and timestamps.
	Create(ctx context.Context, item *media.Item) error
	Get(ctx context.Context, id uuid.UUID) (media.Item, error)
	// Update persists the item's mutable fields (location, status).
	Update(ctx context.Context, item *media.Item) error
	// BeginProcessing atomically transitions UPLOADED -> PROCESSING and
	// reports whether this caller won the transition. Concurrent callers
	// racing on the same id see at most one true result.
	BeginProcessing(ctx context.Context, id uuid.UUID) (bool, error)
}
