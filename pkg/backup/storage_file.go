package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage implements Storage interface using local filesystem
type FileStorage struct {
	basePath string
}

// NewFileStorage creates a new file storage
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FileStorage{basePath: basePath}, nil
}

func (fs *FileStorage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid backup name %q", name)
	}
	return filepath.Join(fs.basePath, name), nil
}

// Save writes data to a temporary file and renames it into place so a
// crash never leaves a truncated backup behind.
func (fs *FileStorage) Save(ctx context.Context, name string, data io.Reader) error {
	filePath, err := fs.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(fs.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write backup data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to finalize backup file: %w", err)
	}
	return nil
}

// Load opens a stored backup
func (fs *FileStorage) Load(ctx context.Context, name string) (io.ReadCloser, error) {
	filePath, err := fs.path(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	file, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	return file, nil
}

// List lists all files with the given prefix
func (fs *FileStorage) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(fs.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// Delete deletes a file
func (fs *FileStorage) Delete(ctx context.Context, name string) error {
	filePath, err := fs.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	return nil
}
