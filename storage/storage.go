// Package storage archives run reports as JSON blobs, either on the local
// filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrArchiveNotFound is returned when no archive exists at the given key.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrInvalidKey is returned when an archive key is empty or escapes the store.
	ErrInvalidKey = errors.New("invalid archive key")
)

// ArchiveStorage stores and retrieves run report archives by key.
type ArchiveStorage interface {
	// Save stores the reader's contents under the given key, replacing any
	// previous archive with the same key.
	Save(ctx context.Context, key string, reader io.Reader) error

	// Open returns a reader for the archive at the given key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the archive at the given key.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an archive is present at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and configures an archive backend.
type Config struct {
	Type     string // "local" or "s3"
	BaseDir  string // local: directory holding archives
	S3Bucket string
	S3Region string
}

// New creates the archive storage selected by cfg.Type.
func New(cfg Config) (ArchiveStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case "local":
		return NewLocalStorage(cfg.BaseDir)
	case "s3":
		return NewS3Storage(cfg.S3Bucket, cfg.S3Region)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// validateKey rejects empty keys, absolute paths, and traversal attempts.
// Applied uniformly so local and S3 backends accept the same keys.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, ".") {
		return fmt.Errorf("%w: traversal detected", ErrInvalidKey)
	}
	if filepath.IsAbs(clean) {
		return fmt.Errorf("%w: absolute keys not allowed", ErrInvalidKey)
	}
	return nil
}
