package repository

import (
	"context"
	"sync"

	"github.com/htmlhost/htmlhost/internal/document"
)

// MemoryRepo is an in-memory Backend used for tests and for running without
// any configured storage.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) List(_ context.Context) ([]document.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]document.Summary, 0, len(m.store))
	for _, d := range m.store {
		out = append(out, d.Summary())
	}
	return out, nil
}

func (m *MemoryRepo) Get(_ context.Context, slug string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[slug]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryRepo) Insert(_ context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[d.Slug]; ok {
		return collisionErr(d.Slug)
	}
	cp := *d
	m.store[d.Slug] = &cp
	return nil
}

func (m *MemoryRepo) Replace(_ context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.store[d.Slug] = &cp
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[slug]; !ok {
		return false, nil
	}
	delete(m.store, slug)
	return true, nil
}
