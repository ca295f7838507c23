// Package storage manages the transient files of a render: the reserved
// artifact path, the per-job work directory and their removal. Nothing here
// outlives a single request.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for transient render files.
type Storage interface {
	// Reserve creates an empty file named name+ext and returns its path.
	// It fails if the file already exists, so concurrent jobs never share
	// an artifact.
	Reserve(ctx context.Context, name, ext string) (path string, err error)

	// WorkDir creates a private directory for intermediate files of one job.
	WorkDir(ctx context.Context, name string) (dir string, err error)

	// SaveTemp writes data to the new file dir/name and returns its path.
	// The renderer stores its drawtext sources in the work dir this way.
	SaveTemp(ctx context.Context, dir, name string, data io.Reader) (path string, err error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified files or directories.
	// It continues cleanup even if some paths fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// TempDir returns the root directory of transient files.
	TempDir() string
}
