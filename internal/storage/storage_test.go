package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aryanprajapat98/REMS/config"
)

type memBackend struct {
	objects map[string][]byte
}

func (m *memBackend) EnsureBucket(context.Context) error { return nil }

func (m *memBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBackend) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memBackend) Bucket() string { return "mem" }

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(&memBackend{objects: map[string][]byte{}})

	if err := s.Put(ctx, "listings/a", strings.NewReader("img"), 3, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	rc, err := s.Get(ctx, "listings/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "img" {
		t.Fatalf("got %q", data)
	}

	if err := s.Delete(ctx, "listings/a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "listings/a"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("got %v, want ErrObjectNotFound", err)
	}
	if err := s.Delete(ctx, "listings/a"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestStorageRejectsEmptyKey(t *testing.T) {
	s := NewStorage(&memBackend{objects: map[string][]byte{}})
	if err := s.Put(context.Background(), " ", strings.NewReader("x"), 1, "image/png"); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{})
	if err != nil || s != nil {
		t.Fatalf("disabled backend: got %v, %v", s, err)
	}
	if _, err := Open(context.Background(), config.StorageConfig{Backend: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, err := Open(context.Background(), config.StorageConfig{Backend: "minio"}); err == nil {
		t.Fatalf("expected error for missing minio endpoint")
	}
}
