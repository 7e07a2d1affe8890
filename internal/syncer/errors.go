package syncer

import (
	"errors"
	"fmt"
)

// ErrClientUnavailable means no collection client could be obtained; the
// pass cannot start.
var ErrClientUnavailable = errors.New("collection client unavailable")

// StorageError reports a local-store failure while applying or marking a
// record. It aborts the remainder of the current phase.
type StorageError struct {
	GUID string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure for %q: %v", e.GUID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NetworkError reports a failed exchange with the storage server. It aborts
// the current phase.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
