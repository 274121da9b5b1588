package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/htmlhost/htmlhost/internal/document"
	"github.com/htmlhost/htmlhost/internal/storage"
	"github.com/htmlhost/htmlhost/pkg/logger"
)

const (
	contentSuffix = ".html"
	metaSuffix    = ".meta.json"
)

// flatMeta is the sidecar stored next to each <slug>.html blob.
type flatMeta struct {
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

// FlatRepo stores each document as <slug>.html with a <slug>.meta.json
// sidecar in a flat blob namespace (a directory or a bucket prefix). The
// .html blob is what makes a document exist: it is written last and removed
// first. Uniqueness on Insert is check-then-write and relies on the Store's
// slug locks.
type FlatRepo struct {
	blobs storage.Blobs
}

func NewFlatRepo(b storage.Blobs) *FlatRepo {
	return &FlatRepo{blobs: b}
}

func (r *FlatRepo) List(ctx context.Context) ([]document.Summary, error) {
	const op = "repository.flat.List"
	objs, err := r.blobs.List(ctx)
	if err != nil {
		return nil, storageErr(op, err)
	}
	out := make([]document.Summary, 0, len(objs))
	for _, o := range objs {
		if !strings.HasSuffix(o.Key, contentSuffix) {
			continue
		}
		slug := strings.TrimSuffix(o.Key, contentSuffix)
		if !document.Valid(slug) {
			continue
		}
		m, err := r.readMeta(ctx, slug, o.ModTime)
		if err != nil {
			return nil, storageErr(op, err)
		}
		out = append(out, document.Summary{Slug: slug, Title: m.Title, Created: m.Created})
	}
	return out, nil
}

func (r *FlatRepo) Get(ctx context.Context, slug string) (*document.Document, error) {
	const op = "repository.flat.Get"
	content, err := r.blobs.Get(ctx, slug+contentSuffix)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil
		}
		return nil, storageErr(op, err)
	}
	var modTime time.Time
	if obj, err := r.blobs.Stat(ctx, slug+contentSuffix); err == nil {
		modTime = obj.ModTime
	}
	m, err := r.readMeta(ctx, slug, modTime)
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &document.Document{Title: m.Title, Slug: slug, Content: string(content), Created: m.Created}, nil
}

func (r *FlatRepo) Insert(ctx context.Context, d *document.Document) error {
	const op = "repository.flat.Insert"
	_, err := r.blobs.Stat(ctx, d.Slug+contentSuffix)
	switch {
	case err == nil:
		return collisionErr(d.Slug)
	case !errors.Is(err, storage.ErrNotExist):
		return storageErr(op, err)
	}
	if err := r.write(ctx, d); err != nil {
		return storageErr(op, err)
	}
	return nil
}

func (r *FlatRepo) Replace(ctx context.Context, d *document.Document) error {
	if err := r.write(ctx, d); err != nil {
		return storageErr("repository.flat.Replace", err)
	}
	return nil
}

func (r *FlatRepo) Delete(ctx context.Context, slug string) (bool, error) {
	const op = "repository.flat.Delete"
	if _, err := r.blobs.Stat(ctx, slug+contentSuffix); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return false, nil
		}
		return false, storageErr(op, err)
	}
	if err := r.blobs.Remove(ctx, slug+contentSuffix); err != nil {
		return false, storageErr(op, err)
	}
	if err := r.blobs.Remove(ctx, slug+metaSuffix); err != nil {
		// the document is already gone; an orphaned sidecar is ignored by List/Get
		logger.Warnf("flat repo: could not remove sidecar for %q: %v", slug, err)
	}
	return true, nil
}

// write stores the sidecar and then the content. If the content write fails
// the sidecar is put back the way it was, so a failed write leaves the stored
// document unchanged.
func (r *FlatRepo) write(ctx context.Context, d *document.Document) error {
	b, err := json.Marshal(flatMeta{Title: d.Title, Created: d.Created})
	if err != nil {
		return err
	}
	metaKey := d.Slug + metaSuffix
	prev, err := r.blobs.Get(ctx, metaKey)
	hadPrev := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotExist) {
		return err
	}
	if err := r.blobs.Put(ctx, metaKey, b); err != nil {
		return err
	}
	if err := r.blobs.Put(ctx, d.Slug+contentSuffix, []byte(d.Content)); err != nil {
		var rerr error
		if hadPrev {
			rerr = r.blobs.Put(ctx, metaKey, prev)
		} else {
			rerr = r.blobs.Remove(ctx, metaKey)
		}
		if rerr != nil {
			logger.Warnf("flat repo: could not restore sidecar for %q: %v", d.Slug, rerr)
		}
		return err
	}
	return nil
}

// readMeta loads the sidecar. A missing or unreadable sidecar falls back to a
// title derived from the slug and the content blob's modification time.
func (r *FlatRepo) readMeta(ctx context.Context, slug string, modTime time.Time) (flatMeta, error) {
	fallback := flatMeta{Title: document.DisplayTitle(slug), Created: modTime.UTC()}
	b, err := r.blobs.Get(ctx, slug+metaSuffix)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return fallback, nil
		}
		return flatMeta{}, err
	}
	var m flatMeta
	if err := json.Unmarshal(b, &m); err != nil {
		logger.Warnf("flat repo: bad sidecar for %q: %v", slug, err)
		return fallback, nil
	}
	if m.Title == "" {
		m.Title = fallback.Title
	}
	if m.Created.IsZero() {
		m.Created = fallback.Created
	}
	return m, nil
}
