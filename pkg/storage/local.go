package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDirName = ".meta"

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Save stores a file and returns its metadata
func (s *LocalStorage) Save(ctx context.Context, brandID uuid.UUID, kind Kind, filename, contentType string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	brandDir := s.brandDir(brandID)
	if err := os.MkdirAll(brandDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create brand directory: %w", err)
	}

	// UUID prefix keeps repeated uploads of the same name apart
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	filePath := filepath.Join(brandDir, storedFilename)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		BrandID:     brandID,
		Kind:        kind,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        storedFilename,
		CreatedAt:   s.now(),
	}

	if err := s.saveMetadata(brandID, info); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	return info, nil
}

// Open returns a reader for a stored file
func (s *LocalStorage) Open(ctx context.Context, brandID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.info(brandID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.brandDir(brandID), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes a file by its ID
func (s *LocalStorage) Delete(ctx context.Context, brandID, fileID uuid.UUID) error {
	info, err := s.info(brandID, fileID)
	if err != nil {
		return err
	}
	return s.remove(info)
}

// List returns all files for a brand, newest first
func (s *LocalStorage) List(ctx context.Context, brandID uuid.UUID) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.brandDir(brandID), metaDirName)
	if _, err := os.Stat(metaDir); os.IsNotExist(err) {
		return []*FileInfo{}, nil
	}

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}

		info, err := s.info(brandID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Purge walks every brand directory and removes files created before cutoff
func (s *LocalStorage) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	brands, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to list brands: %w", err)
	}

	removed := 0
	for _, entry := range brands {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() {
			continue
		}
		brandID, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}

		files, err := s.List(ctx, brandID)
		if err != nil {
			return removed, err
		}
		for _, info := range files {
			if !info.CreatedAt.Before(cutoff) {
				continue
			}
			if err := s.remove(info); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func (s *LocalStorage) brandDir(brandID uuid.UUID) string {
	return filepath.Join(s.basePath, brandID.String())
}

func (s *LocalStorage) metaPath(brandID, fileID uuid.UUID) string {
	return filepath.Join(s.brandDir(brandID), metaDirName, fileID.String()+".json")
}

func (s *LocalStorage) info(brandID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(brandID, fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

func (s *LocalStorage) remove(info *FileInfo) error {
	filePath := filepath.Join(s.brandDir(info.BrandID), info.Path)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(s.metaPath(info.BrandID, info.ID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

// saveMetadata saves file metadata to a JSON file
func (s *LocalStorage) saveMetadata(brandID uuid.UUID, info *FileInfo) error {
	metaDir := filepath.Join(s.brandDir(brandID), metaDirName)
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(s.metaPath(brandID, info.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
