package videostore

import (
	"context"
	"io"
	"time"
)

// Object describes a single stored object from a listing.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// VideoStore is a store of video objects addressed by key.
type VideoStore interface {
	// List enumerates every object in the store, paginating until exhausted.
	List(ctx context.Context) ([]Object, error)
	// Put writes an object to the store.
	Put(ctx context.Context, key string, contentType string, size int64, body io.Reader) error
	// Get retrieves the object for the given key, returning its body and
	// size. It returns store.ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
}
