package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSArchive stores statements in a Cloud Storage bucket.
type GCSArchive struct {
	bucket *storage.BucketHandle
}

// NewGCSArchive wraps a bucket handle.
func NewGCSArchive(bucket *storage.BucketHandle) *GCSArchive {
	return &GCSArchive{bucket: bucket}
}

func (g *GCSArchive) Put(ctx context.Context, objectPath string, data []byte, contentType string) error {
	w := g.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", objectPath, err)
	}
	return nil
}

func (g *GCSArchive) Get(ctx context.Context, objectPath string) ([]byte, error) {
	reader, err := g.bucket.Object(objectPath).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", objectPath, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", objectPath, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", objectPath, err)
	}
	return data, nil
}

var _ Archive = (*GCSArchive)(nil)
