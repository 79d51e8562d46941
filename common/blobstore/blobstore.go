// Package blobstore defines the object storage collaborator used for original
// assets and for the transformed-asset cache, plus its drivers in subpackages.
package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when the object does not exist
	ErrNotFound = errors.New("blobstore: object not found")
	// ErrPresignUnsupported is returned by drivers that cannot mint direct links
	ErrPresignUnsupported = errors.New("blobstore: presigned links not supported")
)

// Object is a stored blob opened for reading. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64 // -1 when unknown
	Metadata    map[string]string
}

// Store is a bucket-scoped key/value blob store
type Store interface {
	// Get opens the object stored at key
	Get(ctx context.Context, key string) (*Object, error)
	// Put stores data at key with its content type and custom metadata
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	// Presign returns a time-limited direct download link for key
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Bucket names the bucket (or namespace) the store is scoped to
	Bucket() string
}
