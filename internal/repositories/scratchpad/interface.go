package scratchpad

import (
	"context"

	"github.com/weavesync/weavesync/internal/models"
)

// Scratchpad persists per-collection sync bookkeeping. The engine touches it
// only at pass boundaries: the cursor is read before fetching and written
// after a pass completes.
type Scratchpad interface {
	// Cursor returns the last successfully fetched-and-applied timestamp
	// for the collection, or zero if the collection was never synced.
	Cursor(ctx context.Context, collection string) (models.Timestamp, error)

	// SetCursor persists the new cursor for the collection.
	SetCursor(ctx context.Context, collection string, ts models.Timestamp) error
}
