package media

import (
	"context"
	"io"
)

// Store persists user-uploaded media (currently avatars only).
type Store interface {
	// Upload writes the object and returns its public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// Delete removes a previously uploaded object by its URL. Unknown URLs
	// are not an error.
	Delete(ctx context.Context, url string) error
}

// NoopStore is used when no object storage is configured. Uploads are
// rejected so callers fall back to keeping the current avatar.
type NoopStore struct{}

func (NoopStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	return "", ErrStorageNotConfigured
}

func (NoopStore) Delete(ctx context.Context, url string) error { return nil }
