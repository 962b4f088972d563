// Package local keeps objects on the filesystem for dev and tests.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"mission-backend/internal/shared/storage/object"
)

// Store implements object.ObjectStore under a base directory.
type Store struct {
	baseDir string
	now     func() time.Time
}

// New creates a store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// PutUpload writes an uploaded document under a generated key.
func (s *Store) PutUpload(ctx context.Context, principal, fileName, contentType string, r io.Reader) (object.Object, error) {
	key, err := object.UploadKey(principal, fileName, s.now())
	if err != nil {
		return object.Object{}, err
	}
	return s.Put(ctx, key, contentType, r)
}

// Put writes r to key. The content type is not persisted.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return object.Object{}, err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return object.Object{}, errors.Wrap(err, "mkdir")
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return object.Object{}, errors.Wrap(err, "open file")
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return object.Object{}, errors.Wrapf(err, "write %s", clean)
	}
	return object.Object{Key: clean, Size: written, ContentType: object.ContentTypeOr(contentType)}, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, err
	}
	return f, nil
}

var _ object.ObjectStore = (*Store)(nil)
