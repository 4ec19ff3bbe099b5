package catalogstore

import (
	"context"
	"time"
)

// Video is a single catalog entry, derived from a bucket listing. UploadDate
// is an ISO-8601 timestamp string, matching the wire format of the catalog.
type Video struct {
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	UploadDate  string `json:"uploadDate"`
	ContentType string `json:"contentType"`
}

// Record is the denormalized snapshot of all known videos. Exactly one
// logical record exists system-wide - every rebuild overwrites the same row.
type Record struct {
	Videos      []Video
	LastUpdated time.Time
	PlaylistKey string
}

// CatalogStore provides access to the single catalog record.
type CatalogStore interface {
	// Get retrieves the catalog record. It returns store.ErrNotFound if no
	// rebuild has written one yet.
	Get(ctx context.Context) (Record, error)
	// Put overwrites the catalog record. Concurrent writers are resolved
	// last-writer-wins.
	Put(ctx context.Context, rec Record) error
}
