package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotExist is returned by Get and Stat when no blob is stored under the key.
var ErrNotExist = errors.New("blob does not exist")

// Object describes a stored blob.
type Object struct {
	Key     string
	ModTime time.Time
}

// Blobs is a flat key/value store of byte blobs. Keys are plain names without
// path separators. Remove of a missing key succeeds.
type Blobs interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Stat(ctx context.Context, key string) (Object, error)
	Remove(ctx context.Context, key string) error
	List(ctx context.Context) ([]Object, error)
}

// validKey rejects keys that could escape the flat namespace.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, ".") {
		return false
	}
	return !strings.ContainsAny(key, `/\`)
}

func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	}
	return "application/octet-stream"
}
