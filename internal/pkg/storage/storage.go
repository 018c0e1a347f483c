package storage

import (
	"context"
	"io"
	"time"
)

// Storage defines the minimal interface for media storage backends.
type Storage interface {
	// Put stores an object at the given key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get retrieves an object by key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object by key. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for an object given its key.
	GetURL(key string) string

	// PresignPut returns a URL the client can PUT the object to directly.
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
}

// FileInfo describes a stored object.
type FileInfo struct {
	Key         string
	Size        int64
	ContentType string
	URL         string
}
