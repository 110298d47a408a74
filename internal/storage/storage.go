// Package storage persists uploaded photos. Objects are addressed by key and
// exposed through a public URL.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
)

// Store is a photo object store.
type Store interface {
	// Put writes the object and returns its public URL.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
	// Delete removes the object; missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a URL previously returned by Put back to its key.
	KeyFromURL(url string) (string, bool)
}

func joinURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}

func keyFromURL(base, url string) (string, bool) {
	prefix := strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || key != path.Base(key) {
		return "", false
	}
	return key, true
}
