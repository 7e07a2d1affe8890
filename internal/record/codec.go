// Package record converts between history domain records and the generic
// wire envelopes exchanged with the storage server. The codec is pure: it
// performs no I/O and holds no state.
package record

import (
	"encoding/json"
	"errors"

	"github.com/weavesync/weavesync/internal/models"
)

const (
	// DeletedSortIndex is deliberately high so consumers that sort by
	// sortindex process deletions first.
	DeletedSortIndex = 1_000_000

	// LiveSortIndex is a placeholder; ranking of live records is a
	// collaborator concern.
	LiveSortIndex = 1

	// TombstoneTTL bounds, in seconds, how long a deletion marker must
	// remain authoritative on the server. Three weeks comfortably exceeds
	// the sync interval of any connected device.
	TombstoneTTL = 3 * 7 * 24 * 60 * 60
)

// payload is the JSON body carried inside an Envelope. A tombstone carries
// only id and deleted; a live record carries id, visits, uri and title.
type payload struct {
	ID      string         `json:"id"`
	Deleted bool           `json:"deleted,omitempty"`
	Visits  []models.Visit `json:"visits,omitempty"`
	URI     string         `json:"uri,omitempty"`
	Title   string         `json:"title,omitempty"`
}

// EncodeDeleted builds the tombstone envelope for guid. Modified is left at
// zero: outgoing timestamps are server-assigned and ignored by the receiver.
func EncodeDeleted(guid string) (Envelope, error) {
	body, err := json.Marshal(payload{ID: guid, Deleted: true})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        guid,
		SortIndex: DeletedSortIndex,
		TTL:       TombstoneTTL,
		Payload:   string(body),
	}, nil
}

// EncodeLive builds the upload envelope for a place and its visits.
func EncodeLive(place models.Place, visits []models.Visit) (Envelope, error) {
	body, err := json.Marshal(payload{
		ID:     place.GUID,
		Visits: visits,
		URI:    place.URL,
		Title:  place.Title,
	})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        place.GUID,
		SortIndex: LiveSortIndex,
		Payload:   string(body),
	}, nil
}

// Decode parses an incoming envelope into a tombstone or a live record.
// Malformed payloads yield a *CodecError carrying the record identifier.
func Decode(env Envelope) (Decoded, error) {
	var body payload
	if err := json.Unmarshal([]byte(env.Payload), &body); err != nil {
		return Decoded{}, &CodecError{ID: env.ID, Err: err}
	}
	if body.ID != "" && body.ID != env.ID {
		return Decoded{}, &CodecError{ID: env.ID, Err: errors.New("payload id does not match envelope id")}
	}
	if body.Deleted {
		return Decoded{ID: env.ID, Deleted: true}, nil
	}
	if body.URI == "" {
		return Decoded{}, &CodecError{ID: env.ID, Err: errors.New("live record has no uri")}
	}
	return Decoded{
		ID: env.ID,
		Place: models.Place{
			GUID:  env.ID,
			URL:   body.URI,
			Title: body.Title,
		},
		Visits: body.Visits,
	}, nil
}
