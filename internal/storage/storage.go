// Package storage keeps export artifacts in a local blob bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
)

type Storage struct {
	bucket *blob.Bucket
	dir    string
}

// Open opens (creating if needed) the bucket rooted at dir.
func Open(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{
		NoTempDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	return &Storage{bucket: bucket, dir: dir}, nil
}

func (s *Storage) Dir() string { return s.dir }

type WriterOptions = blob.WriterOptions

// Put copies r into the blob at key and returns the number of bytes written.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	w, err := s.bucket.NewWriter(ctx, key, &WriterOptions{ContentType: contentType})
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", key, err)
	}
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return n, fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", key, err)
	}
	return n, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	return s.bucket.ReadAll(ctx, key)
}

func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	return s.bucket.Exists(ctx, key)
}

// List returns the keys under prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := it.Next(ctx)
		if err == io.EOF {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, obj.Key)
	}
}

func (s *Storage) Close() error {
	return s.bucket.Close()
}

// ExportKey is the key an export artifact is archived under.
func ExportKey(runID string, jobID int, ext string) string {
	if ext == "" {
		ext = "bin"
	}
	return path.Join("exports", runID, fmt.Sprintf("%d.%s", jobID, ext))
}
