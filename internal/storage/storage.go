package storage

import (
	"context"
	"io"
	"time"
)

// Service stores submission archives in remote object storage.
type Service interface {
	// Upload writes body under key and returns the object location.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// PresignGet returns a time-limited download URL for key.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}
