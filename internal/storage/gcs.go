package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSProvider stores objects in a Google Cloud Storage bucket, used when
// the cleaned snapshot is published for other services to consume.
// Authentication relies on Application Default Credentials.
type GCSProvider struct {
	client *gcs.Client
	bucket string
}

// NewGCSProvider builds a client and fails fast if the bucket is not
// accessible.
func NewGCSProvider(ctx context.Context, bucket string) (*GCSProvider, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("access GCS bucket %q: %w", bucket, err)
	}
	return &GCSProvider{client: client, bucket: bucket}, nil
}

// Save uploads data to the object. GCS object writes are atomic: the new
// generation becomes visible only on a successful Close.
func (p *GCSProvider) Save(ctx context.Context, objectName string, data []byte) error {
	w := p.client.Bucket(p.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize GCS object %s: %w", objectName, err)
	}
	return nil
}

// Load downloads the full object.
func (p *GCSProvider) Load(ctx context.Context, objectName string) ([]byte, error) {
	r, err := p.client.Bucket(p.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("load %s: %w", objectName, ErrNotFound)
		}
		return nil, fmt.Errorf("open GCS object %s: %w", objectName, err)
	}
	defer r.Close() //nolint:errcheck // read-only stream
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s: %w", objectName, err)
	}
	return data, nil
}

// Close releases the underlying client.
func (p *GCSProvider) Close() error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close GCS client: %w", err)
	}
	return nil
}
