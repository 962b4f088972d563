// Package object stores uploaded mission documents and rendered reports.
package object

import (
	"context"
	"io"
)

// DefaultContentType is recorded when the caller does not know the type.
const DefaultContentType = "application/octet-stream"

// Object describes a stored blob.
type Object struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// ObjectStore is implemented by the local filesystem and S3 backends.
type ObjectStore interface {
	// PutUpload stores an uploaded document in the principal's namespace
	// under a generated key.
	PutUpload(ctx context.Context, principal, fileName, contentType string, r io.Reader) (Object, error)
	// Put stores r at key, replacing any previous object.
	Put(ctx context.Context, key, contentType string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
