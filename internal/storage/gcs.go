package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aryanprajapat98/REMS/config"
	"google.golang.org/api/option"
)

type gcsBackend struct {
	bucket    *storage.BucketHandle
	name      string
	projectID string
}

func newGCSBackend(ctx context.Context, cfg config.GCSConfig) (*gcsBackend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &gcsBackend{
		bucket:    client.Bucket(cfg.Bucket),
		name:      cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

func (g *gcsBackend) EnsureBucket(ctx context.Context) error {
	_, err := g.bucket.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.bucket.Create(ctx, g.projectID, nil)
}

func (g *gcsBackend) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	writer := g.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = immutableCacheControl
	// Images are small enough for a single-request upload.
	writer.ChunkSize = 0
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func (g *gcsBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := g.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	return reader, err
}

func (g *gcsBackend) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *gcsBackend) Bucket() string {
	return g.name
}
