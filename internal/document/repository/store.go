package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/htmlhost/htmlhost/internal/document"
	"github.com/htmlhost/htmlhost/pkg/logger"
	"github.com/htmlhost/htmlhost/pkg/metrics"
)

// Policy decides what happens when a create or rename targets a slug that is
// already occupied. It applies the same way to every backend.
type Policy string

const (
	// PolicyReject fails the write with document.ErrSlugCollision.
	PolicyReject Policy = "reject"
	// PolicyOverwrite replaces the occupant (last write wins).
	PolicyOverwrite Policy = "overwrite"
)

// ParsePolicy parses a policy name; the empty string means PolicyReject.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyOverwrite:
		return PolicyOverwrite, nil
	}
	return "", fmt.Errorf("unknown collision policy %q", s)
}

// Store is the document store: it derives slugs, applies the collision
// policy, serializes writes per slug and implements rename on top of a Backend.
type Store struct {
	backend Backend
	policy  Policy
	locker  Locker
	now     func() time.Time

	stampMu   sync.Mutex
	lastStamp time.Time
}

type Option func(*Store)

func WithPolicy(p Policy) Option { return func(s *Store) { s.policy = p } }

func WithLocker(l Locker) Option { return func(s *Store) { s.locker = l } }

// WithClock overrides the source of Created timestamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(b Backend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		policy:  PolicyReject,
		locker:  NewLocalLocker(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns all documents, newest first.
func (s *Store) List(ctx context.Context) ([]document.Summary, error) {
	list, err := s.backend.List(ctx)
	if err != nil {
		return nil, err
	}
	sortSummaries(list)
	return list, nil
}

// Get returns the document stored under slug, or nil if there is none.
func (s *Store) Get(ctx context.Context, slug string) (*document.Document, error) {
	if !document.Valid(slug) {
		return nil, nil
	}
	return s.backend.Get(ctx, slug)
}

// Create derives the slug from title and stores a new document under it.
func (s *Store) Create(ctx context.Context, title, content string) (string, error) {
	slug, err := document.Derive(title)
	if err != nil {
		return "", err
	}
	unlock, err := s.locker.Lock(ctx, slug)
	if err != nil {
		return "", err
	}
	defer unlock()
	if err := s.create(ctx, slug, title, content); err != nil {
		return "", err
	}
	return slug, nil
}

// Update replaces title and content of the document at slug and returns its
// (possibly new) slug. A missing slug is created as if by Create. When the
// title derives to a different slug the document is renamed: afterwards it
// resolves only under the new slug.
func (s *Store) Update(ctx context.Context, slug, title, content string) (string, error) {
	newSlug, err := document.Derive(title)
	if err != nil {
		return "", err
	}
	keys := []string{newSlug}
	if document.Valid(slug) {
		keys = append(keys, slug)
	}
	unlock, err := s.locker.Lock(ctx, keys...)
	if err != nil {
		return "", err
	}
	defer unlock()

	var existing *document.Document
	if document.Valid(slug) {
		if existing, err = s.backend.Get(ctx, slug); err != nil {
			return "", err
		}
	}
	if existing == nil {
		if err := s.create(ctx, newSlug, title, content); err != nil {
			return "", err
		}
		return newSlug, nil
	}

	d := &document.Document{Title: title, Slug: newSlug, Content: content, Created: existing.Created}
	if newSlug == slug {
		if err := s.backend.Replace(ctx, d); err != nil {
			return "", err
		}
		return newSlug, nil
	}
	if err := s.rename(ctx, slug, d); err != nil {
		return "", err
	}
	return newSlug, nil
}

// Delete removes the document at slug and reports whether one existed.
func (s *Store) Delete(ctx context.Context, slug string) (bool, error) {
	if !document.Valid(slug) {
		return false, nil
	}
	unlock, err := s.locker.Lock(ctx, slug)
	if err != nil {
		return false, err
	}
	defer unlock()
	return s.backend.Delete(ctx, slug)
}

func (s *Store) create(ctx context.Context, slug, title, content string) error {
	d := &document.Document{Title: title, Slug: slug, Content: content, Created: s.stamp()}
	if s.policy == PolicyOverwrite {
		return s.backend.Replace(ctx, d)
	}
	return s.backend.Insert(ctx, d)
}

// stamp returns the Created time for a new document. It has millisecond
// precision, which is what MongoDB keeps, and is strictly later than any
// earlier stamp from this Store.
func (s *Store) stamp() time.Time {
	t := s.now().Truncate(time.Millisecond)
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Millisecond)
	}
	s.lastStamp = t
	return t
}

// rename moves the document at from to d.Slug. The native rename is only
// used when the target is free; otherwise, and for backends without one, the
// new record is written first and the old one deleted afterwards. If that
// delete fails the new record is already authoritative, so the stale one is
// only logged and counted.
func (s *Store) rename(ctx context.Context, from string, d *document.Document) error {
	occupant, err := s.backend.Get(ctx, d.Slug)
	if err != nil {
		return err
	}
	if occupant != nil && s.policy != PolicyOverwrite {
		return collisionErr(d.Slug)
	}
	if renamer, ok := s.backend.(Renamer); ok && occupant == nil {
		return renamer.Rename(ctx, from, d)
	}
	if err := s.backend.Replace(ctx, d); err != nil {
		return err
	}
	if _, err := s.backend.Delete(ctx, from); err != nil {
		metrics.StaleRecords.Inc()
		logger.Warnf("rename %q -> %q: old record not removed: %v", from, d.Slug, err)
	}
	return nil
}
