package syncer

import (
	"context"
	"errors"

	"github.com/weavesync/weavesync/internal/models"
	"github.com/weavesync/weavesync/internal/record"
)

// applyRecords applies one fetched page sequentially, in server order.
// Every record of the page shares fetchedAt, the page's last-modified
// timestamp: they were observed together.
//
// Undecodable records are logged and skipped; a storage failure aborts the
// phase immediately, keeping the mutations already applied.
func (s *Synchronizer) applyRecords(ctx context.Context, envs []record.Envelope, fetchedAt models.Timestamp) (int, error) {
	applied := 0
	for _, env := range envs {
		dec, err := record.Decode(env)
		if err != nil {
			var ce *record.CodecError
			if errors.As(err, &ce) {
				s.log.Warn(ctx, "skipping undecodable record", "guid", ce.ID, "error", ce.Err)
				continue
			}
			return applied, err
		}
		if err := s.applyRecord(ctx, dec, fetchedAt); err != nil {
			s.log.Error(ctx, "failed to apply record", "guid", dec.ID, "error", err)
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// applyRecord reconciles one incoming record against the local store.
//
// A tombstone unconditionally removes the local entity, including unsynced
// local edits: the engine does not attempt a three-way merge against a
// deletion. A live record upserts the place's attributes, then unions the
// incoming visits into the local set. Both steps are idempotent, so a
// retried pass may safely apply the same record again.
func (s *Synchronizer) applyRecord(ctx context.Context, dec record.Decoded, fetchedAt models.Timestamp) error {
	if dec.Deleted {
		if err := s.storage.DeleteByGUID(ctx, dec.ID, fetchedAt); err != nil {
			return &StorageError{GUID: dec.ID, Err: err}
		}
		return nil
	}

	if err := s.storage.InsertOrUpdatePlace(ctx, dec.Place, fetchedAt); err != nil {
		return &StorageError{GUID: dec.ID, Err: err}
	}
	if err := s.storage.MergeVisits(ctx, dec.ID, dec.Visits); err != nil {
		return &StorageError{GUID: dec.ID, Err: err}
	}
	return nil
}
