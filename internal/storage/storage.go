// Package storage keeps listing images in an object store. Objects are
// addressed by opaque keys and never rewritten once stored.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aryanprajapat98/REMS/config"
)

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// Keys are never reused, so clients may cache an image indefinitely.
const immutableCacheControl = "public, max-age=31536000, immutable"

// ObjectStorage is implemented by each backend.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get returns ErrObjectNotFound for a missing key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete succeeds for a missing key.
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage is the image store handed to the listing service.
type Storage struct {
	backend ObjectStorage
}

func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("object key is required")
	}
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return body, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// Open connects the object storage selected by cfg.Backend and makes sure
// its bucket exists. It returns nil, nil when no backend is configured.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "minio":
		backend, err = newMinioBackend(cfg.Minio)
	case "gcs":
		backend, err = newGCSBackend(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend), nil
}
