package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPath is where the last update time lives unless configured otherwise
const DefaultPath = "/run/ddns_last_update"

// FileBackend keeps the value in a plain file
type FileBackend struct {
	path string
}

// NewFileBackend creates a file backend at path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Get reads the whole file
func (b *FileBackend) Get(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotFound, b.path)
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// Put writes to a temporary file first and renames it over the target,
// so readers see either the old value or the new one
func (b *FileBackend) Put(_ context.Context, value []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set state file mode: %w", err)
	}

	if err := os.Rename(tmpName, b.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to save state file: %w", err)
	}
	return nil
}

// Close is a no-op for files
func (b *FileBackend) Close() error {
	return nil
}

func (b *FileBackend) String() string {
	return b.path
}
