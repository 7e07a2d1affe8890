package syncer

import (
	"context"

	"github.com/weavesync/weavesync/internal/models"
	"github.com/weavesync/weavesync/internal/record"
	"github.com/weavesync/weavesync/internal/remote"
)

// Tombstone envelopes are tiny compared to live records with visit lists,
// so deletions batch larger than modifications.
const (
	maxDeletedBatch  = 100
	maxModifiedBatch = 50
)

// uploadDeleted pushes locally deleted identifiers as tombstones, in
// batches, strictly in order. Each batch's server timestamp is handed to
// the store for exactly that batch's identifiers before the next batch
// goes out, so a mid-sequence failure leaves earlier batches acknowledged
// and later ones still dirty.
//
// With nothing to delete, no network call is made and from passes through
// unchanged.
func (s *Synchronizer) uploadDeleted(ctx context.Context, client remote.CollectionClient, from models.Timestamp) (models.Timestamp, int, error) {
	guids, err := s.storage.LocallyDeletedGUIDs(ctx)
	if err != nil {
		return from, 0, &StorageError{Err: err}
	}

	last := from
	uploaded := 0
	for start := 0; start < len(guids); start += maxDeletedBatch {
		end := min(start+maxDeletedBatch, len(guids))
		batch := guids[start:end]

		envs := make([]record.Envelope, 0, len(batch))
		for _, guid := range batch {
			env, err := record.EncodeDeleted(guid)
			if err != nil {
				return last, uploaded, err
			}
			envs = append(envs, env)
		}

		ts, err := client.Upload(ctx, envs, last)
		if err != nil {
			return last, uploaded, &NetworkError{Op: "upload deletions", Err: err}
		}
		if err := s.storage.MarkDeletedSynchronized(ctx, batch); err != nil {
			return last, uploaded, &StorageError{Err: err}
		}
		last = ts
		uploaded += len(batch)
	}
	return last, uploaded, nil
}

// uploadModified pushes locally modified places, batched and chained the
// same way as deletions. The store records each batch's timestamp as the
// new server-modified mark for exactly those identifiers.
func (s *Synchronizer) uploadModified(ctx context.Context, client remote.CollectionClient, from models.Timestamp) (models.Timestamp, int, error) {
	modified, err := s.storage.LocallyModifiedPlaces(ctx)
	if err != nil {
		return from, 0, &StorageError{Err: err}
	}

	last := from
	uploaded := 0
	for start := 0; start < len(modified); start += maxModifiedBatch {
		end := min(start+maxModifiedBatch, len(modified))
		batch := modified[start:end]

		envs := make([]record.Envelope, 0, len(batch))
		guids := make([]string, 0, len(batch))
		for _, pv := range batch {
			env, err := record.EncodeLive(pv.Place, pv.Visits)
			if err != nil {
				return last, uploaded, err
			}
			envs = append(envs, env)
			guids = append(guids, pv.Place.GUID)
		}

		ts, err := client.Upload(ctx, envs, last)
		if err != nil {
			return last, uploaded, &NetworkError{Op: "upload modifications", Err: err}
		}
		if _, err := s.storage.MarkSynchronized(ctx, guids, ts); err != nil {
			return last, uploaded, &StorageError{Err: err}
		}
		last = ts
		uploaded += len(batch)
	}
	return last, uploaded, nil
}
