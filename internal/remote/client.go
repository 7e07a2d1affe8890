// Package remote talks to the storage server. It defines the collection
// client contract consumed by the sync engine and its HTTP implementation.
package remote

import (
	"context"

	"github.com/weavesync/weavesync/internal/models"
	"github.com/weavesync/weavesync/internal/record"
)

// Fetched is one page of records observed together, plus the response
// metadata the engine needs: when the fetch happened and the server's
// last-modified timestamp for the collection.
type Fetched struct {
	Records        []record.Envelope
	FetchTimestamp models.Timestamp
	LastModified   models.Timestamp
}

// CollectionClient is the remote contract for one collection.
type CollectionClient interface {
	// FetchSince returns every record modified strictly after cursor.
	FetchSince(ctx context.Context, cursor models.Timestamp) (*Fetched, error)

	// Upload sends one batch. lastTimestamp guards against concurrent
	// writers: the server rejects the batch if the collection changed
	// after that point. Returns the server-assigned timestamp of the
	// batch, the new high-water mark.
	Upload(ctx context.Context, batch []record.Envelope, lastTimestamp models.Timestamp) (models.Timestamp, error)
}
