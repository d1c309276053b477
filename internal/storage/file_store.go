package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the blob in a single JSON file. Writes go to a temporary
// file in the same directory and are renamed into place under a directory
// lock, so readers never observe a partial file.
type FileStore struct {
	path    string
	lockDir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by path. The file and its parent
// directories are created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:    path,
		lockDir: path + ".lock",
	}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. A missing file is reported as absent.
func (s *FileStore) Load(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("file store: read %s: %w", s.path, err)
	}
	return data, true, nil
}

// Save atomically replaces the file contents.
func (s *FileStore) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, FileModeDir); err != nil {
		return fmt.Errorf("file store: create %s: %w", dir, err)
	}
	return WithLock(ctx, s.lockDir, func() error {
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
		if err != nil {
			return fmt.Errorf("file store: create temp file: %w", err)
		}
		tmpName := tmp.Name()
		defer os.Remove(tmpName)

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("file store: write temp file: %w", err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return fmt.Errorf("file store: sync temp file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("file store: close temp file: %w", err)
		}
		if err := os.Chmod(tmpName, FileModeFile); err != nil {
			return fmt.Errorf("file store: chmod temp file: %w", err)
		}
		if err := os.Rename(tmpName, s.path); err != nil {
			return fmt.Errorf("file store: replace %s: %w", s.path, err)
		}
		return nil
	})
}

// Close is a no-op; FileStore holds no open handles.
func (s *FileStore) Close() error {
	return nil
}
