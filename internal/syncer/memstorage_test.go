package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/weavesync/weavesync/internal/logging"
	"github.com/weavesync/weavesync/internal/models"
	"github.com/weavesync/weavesync/internal/record"
	"github.com/weavesync/weavesync/internal/remote"
)

// memStorage is an in-memory reference implementation of places.Storage,
// used only in tests.
type memStorage struct {
	places map[string]models.Place
	visits map[string]map[models.Visit]struct{}

	// server timestamps per guid, as recorded by upserts and mark calls
	serverModified map[string]models.Timestamp

	// pending dirty sets handed to the batcher
	pendingDeleted  []string
	pendingModified []string

	// call recording
	markedSynchronized        [][]string
	markedSynchronizedAt      []models.Timestamp
	markedDeletedSynchronized [][]string

	// failures injected by tests
	failDeleteGUID string
	failUpsertGUID string
	errListDeleted error
}

var errInjected = errors.New("injected storage failure")

func newMemStorage() *memStorage {
	return &memStorage{
		places:         make(map[string]models.Place),
		visits:         make(map[string]map[models.Visit]struct{}),
		serverModified: make(map[string]models.Timestamp),
	}
}

func (m *memStorage) DeleteByGUID(ctx context.Context, guid string, deletedAt models.Timestamp) error {
	if guid == m.failDeleteGUID {
		return errInjected
	}
	delete(m.places, guid)
	delete(m.visits, guid)
	delete(m.serverModified, guid)
	m.pendingModified = slices.DeleteFunc(m.pendingModified, func(g string) bool { return g == guid })
	return nil
}

func (m *memStorage) InsertOrUpdatePlace(ctx context.Context, place models.Place, modifiedAt models.Timestamp) error {
	if place.GUID == m.failUpsertGUID {
		return errInjected
	}
	m.places[place.GUID] = place
	m.serverModified[place.GUID] = modifiedAt
	if m.visits[place.GUID] == nil {
		m.visits[place.GUID] = make(map[models.Visit]struct{})
	}
	return nil
}

func (m *memStorage) MergeVisits(ctx context.Context, guid string, visits []models.Visit) error {
	if m.visits[guid] == nil {
		m.visits[guid] = make(map[models.Visit]struct{})
	}
	for _, v := range visits {
		m.visits[guid][v] = struct{}{}
	}
	return nil
}

func (m *memStorage) LocallyDeletedGUIDs(ctx context.Context) ([]string, error) {
	if m.errListDeleted != nil {
		return nil, m.errListDeleted
	}
	return slices.Clone(m.pendingDeleted), nil
}

func (m *memStorage) LocallyModifiedPlaces(ctx context.Context) ([]models.PlaceWithVisits, error) {
	result := make([]models.PlaceWithVisits, 0, len(m.pendingModified))
	for _, guid := range m.pendingModified {
		pv := models.PlaceWithVisits{Place: m.places[guid]}
		for v := range m.visits[guid] {
			pv.Visits = append(pv.Visits, v)
		}
		result = append(result, pv)
	}
	return result, nil
}

func (m *memStorage) MarkSynchronized(ctx context.Context, guids []string, uploadedAt models.Timestamp) (models.Timestamp, error) {
	m.markedSynchronized = append(m.markedSynchronized, slices.Clone(guids))
	m.markedSynchronizedAt = append(m.markedSynchronizedAt, uploadedAt)
	for _, g := range guids {
		m.serverModified[g] = uploadedAt
		m.pendingModified = slices.DeleteFunc(m.pendingModified, func(x string) bool { return x == g })
	}
	return uploadedAt, nil
}

func (m *memStorage) MarkDeletedSynchronized(ctx context.Context, guids []string) error {
	m.markedDeletedSynchronized = append(m.markedDeletedSynchronized, slices.Clone(guids))
	for _, g := range guids {
		m.pendingDeleted = slices.DeleteFunc(m.pendingDeleted, func(x string) bool { return x == g })
	}
	return nil
}

// fakeClient records uploads and serves a canned fetch response. Each
// successful upload advances the server clock by tsStep.
type fakeClient struct {
	fetched  *remote.Fetched
	fetchErr error

	uploads     [][]record.Envelope
	uploadLasts []models.Timestamp

	ts     models.Timestamp
	tsStep models.Timestamp

	failUploadAt int // 1-based upload call number to fail, 0 = never
}

func (c *fakeClient) FetchSince(ctx context.Context, cursor models.Timestamp) (*remote.Fetched, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	if c.fetched != nil {
		return c.fetched, nil
	}
	return &remote.Fetched{FetchTimestamp: c.ts, LastModified: c.ts}, nil
}

func (c *fakeClient) Upload(ctx context.Context, batch []record.Envelope, lastTimestamp models.Timestamp) (models.Timestamp, error) {
	c.uploads = append(c.uploads, slices.Clone(batch))
	c.uploadLasts = append(c.uploadLasts, lastTimestamp)
	if c.failUploadAt != 0 && len(c.uploads) == c.failUploadAt {
		return 0, errors.New("injected upload failure")
	}
	c.ts += c.tsStep
	return c.ts, nil
}

// memScratchpad keeps cursors in a map.
type memScratchpad struct {
	cursors map[string]models.Timestamp
}

func newMemScratchpad() *memScratchpad {
	return &memScratchpad{cursors: make(map[string]models.Timestamp)}
}

func (m *memScratchpad) Cursor(ctx context.Context, collection string) (models.Timestamp, error) {
	return m.cursors[collection], nil
}

func (m *memScratchpad) SetCursor(ctx context.Context, collection string, ts models.Timestamp) error {
	m.cursors[collection] = ts
	return nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func openGate(ctx context.Context) string { return "" }

func provide(c remote.CollectionClient) ClientProvider {
	return ClientProviderFunc(func(ctx context.Context, collection string) (remote.CollectionClient, error) {
		return c, nil
	})
}

func newTestSynchronizer(t *testing.T, storage *memStorage, scratch *memScratchpad, client remote.CollectionClient) *Synchronizer {
	t.Helper()
	return New("history", storage, scratch, GateFunc(openGate), provide(client), testLogger())
}
