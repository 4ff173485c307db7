package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage defines the interface for photo blob storage operations
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// EnsureBucket creates the backing bucket if it doesn't exist
	EnsureBucket(ctx context.Context) error
}

// PhotoKey builds the storage key for a reference watch photo. Keys are
// grouped by reference ID so a watch's photos share a prefix.
// Parameters:
//   - referenceID: owning reference watch ID.
//   - filename: original file name, used only for its extension.
// Returns:
//   - string: object key, e.g. "photos/<reference-id>/<uuid>.jpg".
func PhotoKey(referenceID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	// Drop query strings picked up from URL-derived names
	if idx := strings.IndexAny(ext, "?#"); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return fmt.Sprintf("photos/%s/%s%s", referenceID, uuid.New().String(), ext)
}
