// Package storage abstracts blob persistence for crawl snapshots. The
// orchestrator and cleanup stage write whole files through a Provider so the
// service can target the local filesystem in development and GCS in
// production without changing pipeline code.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when the object does not exist.
var ErrNotFound = errors.New("object not found")

// Provider is a whole-object blob store. Save must replace the object
// atomically from the perspective of concurrent readers.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) error
	Load(ctx context.Context, objectName string) ([]byte, error)
}

// NoOpProvider discards writes and has nothing to read. Useful for dry
// runs.
type NoOpProvider struct{}

// Save discards the data.
func (NoOpProvider) Save(_ context.Context, _ string, _ []byte) error {
	return nil
}

// Load always reports the object missing.
func (NoOpProvider) Load(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrNotFound
}
