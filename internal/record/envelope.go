package record

import (
	"fmt"

	"github.com/weavesync/weavesync/internal/models"
)

// Envelope is the generic wire wrapper around one record of a collection.
// Modified and SortIndex are transport metadata assigned or consumed by the
// server; Payload is the stringified JSON body carrying the domain content.
//
// An Envelope exists for exactly one upload attempt or one incoming apply;
// it is never persisted.
type Envelope struct {
	ID        string           `json:"id"`
	Modified  models.Timestamp `json:"modified,omitempty"`
	SortIndex int              `json:"sortindex,omitempty"`
	TTL       int              `json:"ttl,omitempty"`
	Payload   string           `json:"payload"`
}

// Decoded is the result of decoding an Envelope: either a tombstone
// (identifier only) or a live place with its visits.
type Decoded struct {
	ID      string
	Deleted bool
	Place   models.Place
	Visits  []models.Visit
}

// CodecError reports a record whose payload could not be decoded. The
// offending record is skipped; a CodecError never aborts a sync pass.
type CodecError struct {
	ID  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("undecodable record %q: %v", e.ID, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}
