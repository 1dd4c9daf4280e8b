package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem persists proofs under a root directory, one subdirectory per
// institution. It is intended for single-node deployments.
type FileSystem struct {
	root string
}

func NewFileSystem(root string) (*FileSystem, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure root: %w", err)
	}
	return &FileSystem{root: root}, nil
}

func (s *FileSystem) Root() string {
	return s.root
}

// Put writes data to a temporary file and renames it into place, so a
// reference never points at a partial file.
func (s *FileSystem) Put(ctx context.Context, institutionID, filename, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := NewRef(institutionID, filename)
	full, err := s.path(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("storage: commit file: %w", err)
	}
	return ref, nil
}

func (s *FileSystem) Delete(_ context.Context, ref string) error {
	full, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

func (s *FileSystem) path(ref string) (string, error) {
	rel, err := sanitizeRef(ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}
