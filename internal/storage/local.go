package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/audiobound/audiobound/internal/core"
)

// LocalAdapter implements Adapter against the local filesystem, rooted at
// basePath — the backend for job records and raw uploads (internal/book)
// and character profiles (profile.FileStore) when the deployment has no
// S3-compatible bucket configured.
type LocalAdapter struct {
	basePath string
}

// NewLocalAdapter creates a new local filesystem adapter
func NewLocalAdapter(basePath string) (*LocalAdapter, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, core.FileSystemPermission{Path: basePath, Err: err}
	}

	return &LocalAdapter{
		basePath: basePath,
	}, nil
}

// Put stores data at the given path. Every write passes through
// core.FileSystemPermission on failure, the same kind the pipeline's other
// disk writers (resume.Store, audio.Merger) surface, so a caller can
// switch on kind regardless of which component touched disk.
func (l *LocalAdapter) Put(ctx context.Context, path string, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return core.Cancelled{}
	}
	fullPath := l.fullPath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return core.FileSystemPermission{Path: filepath.Dir(fullPath), Err: err}
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return core.FileSystemPermission{Path: fullPath, Err: err}
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return core.FileSystemPermission{Path: fullPath, Err: err}
	}

	return nil
}

// Get retrieves data from the given path
func (l *LocalAdapter) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Cancelled{}
	}
	fullPath := l.fullPath(path)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, core.FileSystemPermission{Path: fullPath, Err: err}
	}

	return file, nil
}

// Delete removes data at the given path
func (l *LocalAdapter) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return core.Cancelled{}
	}
	fullPath := l.fullPath(path)

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return core.FileSystemPermission{Path: fullPath, Err: err}
	}

	return nil
}

// Exists checks if data exists at the given path
func (l *LocalAdapter) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, core.Cancelled{}
	}
	fullPath := l.fullPath(path)

	_, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, core.FileSystemPermission{Path: fullPath, Err: err}
	}

	return true, nil
}

// List returns paths matching the given prefix
func (l *LocalAdapter) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Cancelled{}
	}
	fullPrefix := l.fullPath(prefix)
	var paths []string

	// Walk the directory tree
	err := filepath.Walk(l.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if info.IsDir() {
			return nil
		}

		// Check if path matches prefix
		if strings.HasPrefix(path, fullPrefix) {
			// Convert to relative path
			relPath, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			paths = append(paths, relPath)
		}

		return nil
	})

	if err != nil {
		return nil, core.FileSystemPermission{Path: l.basePath, Err: err}
	}

	return paths, nil
}

// Close cleans up any resources
func (l *LocalAdapter) Close() error {
	// No cleanup needed for local adapter
	return nil
}

// fullPath returns the full filesystem path
func (l *LocalAdapter) fullPath(path string) string {
	return filepath.Join(l.basePath, path)
}
