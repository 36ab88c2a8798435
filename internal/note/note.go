// Package note defines the note model persisted by the storage backends.
package note

import "time"

// Note is a single text note owned by exactly one user.
// ShareID is assigned once at creation and never regenerated; the note is
// publicly readable only while IsPublic is true, regardless of ShareID.
type Note struct {
	ID        int64
	OwnerID   string
	Title     string
	Content   string
	IsPublic  bool
	ShareID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
