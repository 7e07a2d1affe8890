package places

import (
	"context"

	"github.com/weavesync/weavesync/internal/models"
)

// Storage is the local-store contract the sync engine drives. Every call is
// individually atomic; the engine never assumes atomicity across calls,
// which is why a failed pass is retried whole rather than rolled back.
type Storage interface {
	// DeleteByGUID removes the place and all of its visits, including any
	// unsynchronized local edits. deletedAt records when the deletion was
	// observed.
	DeleteByGUID(ctx context.Context, guid string, deletedAt models.Timestamp) error

	// InsertOrUpdatePlace inserts the place or overwrites its attributes if
	// it already exists, stamping it as seen from the server at modifiedAt.
	// Safe to repeat.
	InsertOrUpdatePlace(ctx context.Context, place models.Place, modifiedAt models.Timestamp) error

	// MergeVisits unions the given visits into the place's visit set.
	// Local-only visits are never removed. Safe to repeat.
	MergeVisits(ctx context.Context, guid string, visits []models.Visit) error

	// LocallyDeletedGUIDs returns identifiers deleted locally but not yet
	// uploaded as tombstones.
	LocallyDeletedGUIDs(ctx context.Context) ([]string, error)

	// LocallyModifiedPlaces returns places changed locally since the last
	// successful upload, with their visits.
	LocallyModifiedPlaces(ctx context.Context) ([]models.PlaceWithVisits, error)

	// MarkSynchronized clears the dirty flag for exactly the given
	// identifiers, recording uploadedAt as their server timestamp, and
	// echoes the new high-water mark.
	MarkSynchronized(ctx context.Context, guids []string, uploadedAt models.Timestamp) (models.Timestamp, error)

	// MarkDeletedSynchronized forgets local tombstones whose deletion has
	// been acknowledged by the server.
	MarkDeletedSynchronized(ctx context.Context, guids []string) error
}
