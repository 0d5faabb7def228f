// Package storage keeps uploaded source files and exported workbooks on disk,
// grouped per brand.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrFileNotFound = errors.New("file not found")

// Kind tells uploads and exports apart.
type Kind string

const (
	KindUpload Kind = "upload"
	KindExport Kind = "export"
)

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	BrandID     uuid.UUID `json:"brand_id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file and returns its metadata
	Save(ctx context.Context, brandID uuid.UUID, kind Kind, filename, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for a stored file and its metadata
	Open(ctx context.Context, brandID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, brandID, fileID uuid.UUID) error

	// List returns all files of a brand, newest first
	List(ctx context.Context, brandID uuid.UUID) ([]*FileInfo, error)

	// Purge removes every file created before cutoff and reports how many went
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

// Config holds storage configuration
type Config struct {
	LocalPath string
}

// New creates the local filesystem storage.
func New(cfg Config) (Storage, error) {
	return NewLocalStorage(cfg.LocalPath)
}
