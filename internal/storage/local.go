package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists uploaded document files behind opaque storage paths
type FileStore interface {
	Save(fileName string, r io.Reader) (path string, size int64, err error)
	Open(path string) (io.ReadCloser, error)
	Delete(path string) error
	Exists(path string) bool
}

// LocalStore stores files on the local filesystem under a base directory
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a local file store, ensuring the base directory exists
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save writes the content under a generated unique name and returns the
// opaque storage path. The original extension is kept for operator
// convenience; callers must validate the file name beforehand.
func (s *LocalStore) Save(fileName string, r io.Reader) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	uniqueName := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	destPath := filepath.Join(s.baseDir, uniqueName)

	dst, err := os.Create(destPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, r)
	if err != nil {
		os.Remove(destPath) // cleanup on error
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return uniqueName, size, nil
}

// Open returns a reader for a stored file
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.baseDir, filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete removes a stored file
func (s *LocalStore) Delete(path string) error {
	if err := os.Remove(filepath.Join(s.baseDir, filepath.Base(path))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists reports whether a stored file is present
func (s *LocalStore) Exists(path string) bool {
	_, err := os.Stat(filepath.Join(s.baseDir, filepath.Base(path)))
	return err == nil
}
