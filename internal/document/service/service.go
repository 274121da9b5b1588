package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/htmlhost/htmlhost/internal/document"
	"github.com/htmlhost/htmlhost/internal/document/repository"
	"github.com/htmlhost/htmlhost/pkg/metrics"
)

var (
	ErrNotFound = errors.New("not found")
)

// Service defines the document business operations used by the handler layer.
type Service interface {
	Upload(ctx context.Context, title, content string) (string, error)
	Edit(ctx context.Context, slug, title, content string) (string, error)
	Remove(ctx context.Context, slug string) (bool, error)
	Fetch(ctx context.Context, slug string) (*document.Document, error)
	ListAll(ctx context.Context) ([]document.Summary, error)
}

// New returns a Service on top of the given store.
func New(store *repository.Store) Service {
	return &storeService{store: store}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(opts ...repository.Option) Service {
	return New(repository.NewStore(repository.NewMemoryRepo(), opts...))
}

type storeService struct {
	store *repository.Store
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", document.ErrInvalidInput, field)
	}
	return nil
}

func (s *storeService) Upload(ctx context.Context, title, content string) (string, error) {
	if err := required("title", title); err != nil {
		return "", record("upload", err)
	}
	slug, err := s.store.Create(ctx, title, content)
	return slug, record("upload", err)
}

func (s *storeService) Edit(ctx context.Context, slug, title, content string) (string, error) {
	if err := required("slug", slug); err != nil {
		return "", record("edit", err)
	}
	if err := required("title", title); err != nil {
		return "", record("edit", err)
	}
	newSlug, err := s.store.Update(ctx, slug, title, content)
	return newSlug, record("edit", err)
}

func (s *storeService) Remove(ctx context.Context, slug string) (bool, error) {
	if err := required("slug", slug); err != nil {
		return false, record("remove", err)
	}
	ok, err := s.store.Delete(ctx, slug)
	return ok, record("remove", err)
}

func (s *storeService) Fetch(ctx context.Context, slug string) (*document.Document, error) {
	d, err := s.store.Get(ctx, slug)
	if err != nil {
		return nil, record("fetch", err)
	}
	if d == nil {
		return nil, record("fetch", ErrNotFound)
	}
	return d, record("fetch", nil)
}

func (s *storeService) ListAll(ctx context.Context) ([]document.Summary, error) {
	list, err := s.store.List(ctx)
	return list, record("list", err)
}

// record counts the outcome of op and passes err through.
func record(op string, err error) error {
	metrics.DocumentOperations.WithLabelValues(op, resultLabel(err)).Inc()
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, document.ErrSlugCollision):
		return "collision"
	case errors.Is(err, document.ErrInvalidInput), errors.Is(err, document.ErrInvalidTitle):
		return "invalid"
	default:
		return "error"
	}
}
