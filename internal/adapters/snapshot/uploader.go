// Package snapshot exports standings and pairings as JSON documents to object storage.
package snapshot

import (
	"context"
	"io"
)

// UploadResult describes a stored object.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// Uploader stores objects under a key.
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader) (*UploadResult, error)
}
