package syncer

import (
	"context"
	"fmt"

	"github.com/weavesync/weavesync/internal/logging"
	"github.com/weavesync/weavesync/internal/remote"
	"github.com/weavesync/weavesync/internal/repositories/places"
	"github.com/weavesync/weavesync/internal/repositories/scratchpad"
)

// Gate decides whether a pass may start at all. A non-empty reason (sync
// disabled, no session, backoff requested by the server) stops the pass
// before any network or storage call.
type Gate interface {
	ReasonToNotSync(ctx context.Context) string
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context) string

func (f GateFunc) ReasonToNotSync(ctx context.Context) string {
	return f(ctx)
}

// ClientProvider hands out the collection client for a pass. Failing to
// obtain one is fatal for the pass.
type ClientProvider interface {
	CollectionClient(ctx context.Context, collection string) (remote.CollectionClient, error)
}

// ClientProviderFunc adapts a function to the ClientProvider interface.
type ClientProviderFunc func(ctx context.Context, collection string) (remote.CollectionClient, error)

func (f ClientProviderFunc) CollectionClient(ctx context.Context, collection string) (remote.CollectionClient, error) {
	return f(ctx, collection)
}

// Synchronizer runs sync passes for one collection.
type Synchronizer struct {
	collection string
	storage    places.Storage
	scratch    scratchpad.Scratchpad
	gate       Gate
	clients    ClientProvider
	log        logging.Logger
}

func New(collection string, storage places.Storage, scratch scratchpad.Scratchpad,
	gate Gate, clients ClientProvider, log logging.Logger) *Synchronizer {
	return &Synchronizer{
		collection: collection,
		storage:    storage,
		scratch:    scratch,
		gate:       gate,
		clients:    clients,
		log:        log.With("collection", collection),
	}
}

// Sync runs one pass: gate, fetch since the cursor, apply, upload deletions
// then modifications, persist the cursor. The result is StatusNotStarted
// (gate blocked, no side effects), StatusCompleted, or an error. An error
// may leave local mutations behind; the caller retries the whole pass.
func (s *Synchronizer) Sync(ctx context.Context) (*Result, error) {
	if reason := s.gate.ReasonToNotSync(ctx); reason != "" {
		s.log.Info(ctx, "sync not started", "reason", reason)
		return &Result{Status: StatusNotStarted, Reason: reason}, nil
	}

	client, err := s.clients.CollectionClient(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientUnavailable, err)
	}

	cursor, err := s.scratch.Cursor(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read cursor: %w", err)
	}

	fetched, err := client.FetchSince(ctx, cursor)
	if err != nil {
		return nil, &NetworkError{Op: "fetch", Err: err}
	}
	s.log.Info(ctx, "fetched records", "count", len(fetched.Records), "cursor", cursor, "last_modified", fetched.LastModified)

	applied, err := s.applyRecords(ctx, fetched.Records, fetched.LastModified)
	if err != nil {
		return nil, err
	}

	// Deletions go first so a locally superseded delete is never shadowed
	// by a modification uploaded after it.
	last, deleted, err := s.uploadDeleted(ctx, client, fetched.FetchTimestamp)
	if err != nil {
		return nil, err
	}
	last, modified, err := s.uploadModified(ctx, client, last)
	if err != nil {
		return nil, err
	}

	// The cursor normally lands on the page's last-modified. When this
	// pass uploaded, the server's acknowledgment timestamps are newer and
	// the upload guard ensures nothing else was written in between, so the
	// cursor may advance to the high-water mark and our own records are
	// not fetched back next pass.
	cursor = fetched.LastModified
	if deleted+modified > 0 && last > cursor {
		cursor = last
	}
	if err := s.scratch.SetCursor(ctx, s.collection, cursor); err != nil {
		return nil, fmt.Errorf("failed to persist cursor: %w", err)
	}

	s.log.Info(ctx, "sync completed", "applied", applied, "uploaded_deletions", deleted, "uploaded_modifications", modified)
	return &Result{
		Status:                StatusCompleted,
		Applied:               applied,
		UploadedDeletions:     deleted,
		UploadedModifications: modified,
		Cursor:                cursor,
	}, nil
}
