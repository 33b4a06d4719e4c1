// Package storage provides object storage abstractions for raw input
// datasets and export files.
package storage

import (
	"context"
	"errors"
	"io"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrDownloadFailed = errors.New("download failed")
	ErrUploadFailed   = errors.New("upload failed")
)

// ObjectStorage abstracts where raw input datasets and exports live.
// Implementations include S3 and the local filesystem.
type ObjectStorage interface {
	// Open returns a reader over the object at objectPath.
	// The caller must close the returned reader.
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)

	// Put writes the contents of r to objectPath, replacing any
	// existing object.
	Put(ctx context.Context, objectPath string, r io.Reader) error

	// Exists checks if an object exists in storage.
	Exists(ctx context.Context, objectPath string) (bool, error)
}
