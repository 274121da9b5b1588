package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/htmlhost/htmlhost/internal/document"
)

// Backend is the storage contract every document backend implements. Get
// returns nil, nil for a missing slug. Insert fails with
// document.ErrSlugCollision when the slug is taken; Replace writes
// unconditionally.
type Backend interface {
	List(ctx context.Context) ([]document.Summary, error)
	Get(ctx context.Context, slug string) (*document.Document, error)
	Insert(ctx context.Context, d *document.Document) error
	Replace(ctx context.Context, d *document.Document) error
	Delete(ctx context.Context, slug string) (bool, error)
}

// Renamer is implemented by backends that can move a record to a new slug in
// a single atomic write. Rename keeps the stored Created value.
type Renamer interface {
	Rename(ctx context.Context, from string, d *document.Document) error
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, document.ErrStorage, err)
}

func collisionErr(slug string) error {
	return fmt.Errorf("%w: %q", document.ErrSlugCollision, slug)
}

// sortSummaries orders newest first; equal timestamps fall back to slug order.
func sortSummaries(list []document.Summary) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Created.Equal(list[j].Created) {
			return list[i].Created.After(list[j].Created)
		}
		return list[i].Slug < list[j].Slug
	})
}
