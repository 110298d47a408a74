package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps photos in a directory served as static files.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates dir if needed. urlPrefix is the route the
// directory is served under, e.g. "/uploads".
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir returns the directory photos are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put writes content to dir/key.
func (s *LocalStore) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, key)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", key, err)
	}
	return joinURL(s.urlPrefix, key), nil
}

// Delete removes dir/key.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// KeyFromURL reverses Put's URL.
func (s *LocalStore) KeyFromURL(url string) (string, bool) {
	return keyFromURL(s.urlPrefix, url)
}

func validKey(key string) error {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
