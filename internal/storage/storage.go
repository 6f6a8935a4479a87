// Package storage writes uploaded images to an object store and tracks them
// until a profile save adopts or abandons them.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Delete when the object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore is a flat key/value blob store that can serve objects publicly.
type ObjectStore interface {
	// Put writes r under key and returns the public URL of the object.
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}
