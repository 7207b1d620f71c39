package deliver

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/vodforge/vodforge/internal/apperror"
	"github.com/vodforge/vodforge/internal/logger"
	"github.com/vodforge/vodforge/internal/media"
	"github.com/vodforge/vodforge/internal/storage"
)

// Gateway streams processed HLS artifacts out of object storage.
// Players fetch the manifest first, then each segment it names, so
// latency here is on the playback path.
type Gateway struct {
	storage storage.Storage
}

func NewGateway(blobs storage.Storage) *Gateway {
	return &Gateway{storage: blobs}
}

// Resolve opens the named artifact of a media item for streaming and
// reports the content type the response should carry. The caller owns
// the returned reader.
func (g *Gateway) Resolve(ctx context.Context, mediaID uuid.UUID, fileName string) (io.ReadCloser, string, error) {
	if !validFileName(fileName) {
		return nil, "", apperror.ErrArtifactNotFound
	}

	key := media.ArtifactKey(mediaID.String(), fileName)

	reader, err := g.storage.Download(ctx, key)
	if err != nil {
		// Every storage failure reads as a missing artifact to the
		// client; the real cause goes to the log.
		if !errors.Is(err, storage.ErrNotFound) {
			logger.FromContext(ctx).Error("artifact fetch failed", "key", key, "error", err)
		}
		return nil, "", apperror.Wrap(err, apperror.ErrArtifactNotFound)
	}

	return reader, media.ContentTypeFor(fileName), nil
}

// validFileName rejects anything that could escape the media item's
// artifact prefix.
func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return true
}
