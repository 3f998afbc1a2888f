package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Get when no object exists under the key.
// Implementations translate their backend-specific error into this sentinel.
var ErrObjectNotFound = errors.New("object not found")

// Package storage contains blob storage abstractions for object stores
// (S3-compatible). Blobs are keyed by generated identifiers, independent of
// display names; derived image renditions live under deterministic variant
// keys next to their original. Implementations must avoid using local disk
// and rely on streaming I/O only.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible blob store client interface.
// Methods use context and streaming readers/writers; no local disk is used.
// Put overwrites existing keys, which is what makes rendition generation
// idempotent under job redelivery.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}

// VariantKey returns the storage key of a derived rendition. The key is a
// pure function of the original key and the target width, so regenerating a
// rendition overwrites the previous output instead of duplicating it.
func VariantKey(key string, width int) string {
	return fmt.Sprintf("%s_%d", key, width)
}
