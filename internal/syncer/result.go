package syncer

import "github.com/weavesync/weavesync/internal/models"

// Status is the terminal state of a sync pass. A pass that fails partway
// reports an error instead; there is no partial-success status even though
// some local mutation may already have happened.
type Status int

const (
	StatusCompleted Status = iota
	StatusNotStarted
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusNotStarted:
		return "not started"
	default:
		return "unknown"
	}
}

// Result describes a finished pass.
type Result struct {
	Status Status

	// Reason explains a StatusNotStarted pass (gate blocked).
	Reason string

	// Applied counts incoming records applied to the local store.
	Applied int

	// UploadedDeletions and UploadedModifications count records
	// acknowledged by the server this pass.
	UploadedDeletions     int
	UploadedModifications int

	// Cursor is the persisted fetch boundary after the pass.
	Cursor models.Timestamp
}
