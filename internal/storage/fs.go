package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FSBlobs stores blobs as files in a single directory. The directory is created
// on first use. Writes go through a temp file and a rename.
type FSBlobs struct {
	fs  afero.Fs
	dir string
}

// NewFSBlobs returns blobs stored in dir on the given filesystem.
func NewFSBlobs(fsys afero.Fs, dir string) *FSBlobs {
	return &FSBlobs{fs: fsys, dir: dir}
}

// NewOSBlobs returns blobs stored in dir on the local disk.
func NewOSBlobs(dir string) *FSBlobs {
	return NewFSBlobs(afero.NewOsFs(), dir)
}

func (b *FSBlobs) path(key string) string {
	return filepath.Join(b.dir, key)
}

func (b *FSBlobs) Put(_ context.Context, key string, data []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}
	tmp := b.path("." + key + ".tmp")
	if err := afero.WriteFile(b.fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := b.fs.Rename(tmp, b.path(key)); err != nil {
		_ = b.fs.Remove(tmp)
		return err
	}
	return nil
}

func (b *FSBlobs) Get(_ context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, ErrNotExist
	}
	data, err := afero.ReadFile(b.fs, b.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

func (b *FSBlobs) Stat(_ context.Context, key string) (Object, error) {
	if !validKey(key) {
		return Object{}, ErrNotExist
	}
	fi, err := b.fs.Stat(b.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Object{}, ErrNotExist
		}
		return Object{}, err
	}
	if fi.IsDir() {
		return Object{}, ErrNotExist
	}
	return Object{Key: key, ModTime: fi.ModTime()}, nil
}

func (b *FSBlobs) Remove(_ context.Context, key string) error {
	if !validKey(key) {
		return nil
	}
	if err := b.fs.Remove(b.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (b *FSBlobs) List(_ context.Context) ([]Object, error) {
	entries, err := afero.ReadDir(b.fs, b.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if mkErr := b.fs.MkdirAll(b.dir, 0o755); mkErr != nil {
				return nil, mkErr
			}
			return []Object{}, nil
		}
		return nil, err
	}
	out := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, Object{Key: e.Name(), ModTime: e.ModTime()})
	}
	return out, nil
}
