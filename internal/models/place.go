// Package models defines the history domain types shared by the sync engine
// and the local repositories.
package models

import "github.com/google/uuid"

// Timestamp is a server-assigned point in time, in milliseconds since the
// Unix epoch. Timestamps originate on the storage server; the client never
// asserts its own clock for synchronization purposes.
type Timestamp int64

// VisitType classifies how a page was reached.
type VisitType int

const (
	VisitTypeLink              VisitType = 1
	VisitTypeTyped             VisitType = 2
	VisitTypeBookmark          VisitType = 3
	VisitTypeEmbed             VisitType = 4
	VisitTypeRedirectPermanent VisitType = 5
	VisitTypeRedirectTemporary VisitType = 6
	VisitTypeDownload          VisitType = 7
)

// Visit is a single page visit. Visits are append-only: two visits are the
// same visit exactly when both date and type match, which is what makes
// visit merging a set union.
type Visit struct {
	Date Timestamp `json:"date"`
	Type VisitType `json:"type"`
}

// Place is a visited page identified by a globally unique, stable GUID.
type Place struct {
	GUID  string
	URL   string
	Title string
}

// PlaceWithVisits pairs a place with its known visits, as returned by the
// local store when collecting entities for upload.
type PlaceWithVisits struct {
	Place  Place
	Visits []Visit
}

// NewGUID returns a fresh globally unique identifier for a locally created
// place.
func NewGUID() string {
	return uuid.NewString()
}
