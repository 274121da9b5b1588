package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/htmlhost/htmlhost/internal/document"
	"github.com/htmlhost/htmlhost/internal/storage"
)

const flatDir = "/srv/documents"

func newFlat(t *testing.T) (*FlatRepo, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewFlatRepo(storage.NewFSBlobs(fs, flatDir)), fs
}

func TestFlatRepo_Layout(t *testing.T) {
	ctx := context.Background()
	r, fs := newFlat(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.Insert(ctx, &document.Document{Title: "Hello World", Slug: "hello-world", Content: "<p>hi</p>", Created: created}))

	raw, err := afero.ReadFile(fs, flatDir+"/hello-world.html")
	require.NoError(t, err)
	require.Equal(t, "<p>hi</p>", string(raw))

	meta, err := afero.ReadFile(fs, flatDir+"/hello-world.meta.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"Hello World","created":"2024-03-01T12:00:00Z"}`, string(meta))

	d, err := r.Get(ctx, "hello-world")
	require.NoError(t, err)
	require.Equal(t, "Hello World", d.Title)
	require.True(t, created.Equal(d.Created))
}

func TestFlatRepo_MissingSidecarFallsBack(t *testing.T) {
	ctx := context.Background()
	r, fs := newFlat(t)
	require.NoError(t, fs.MkdirAll(flatDir, 0o755))
	require.NoError(t, afero.WriteFile(fs, flatDir+"/quarterly-report.html", []byte("<h1>Q</h1>"), 0o644))

	d, err := r.Get(ctx, "quarterly-report")
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Equal(t, "Quarterly Report", d.Title)
	require.Equal(t, "<h1>Q</h1>", d.Content)
	require.False(t, d.Created.IsZero())

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Quarterly Report", list[0].Title)
}

func TestFlatRepo_CorruptSidecarFallsBack(t *testing.T) {
	ctx := context.Background()
	r, fs := newFlat(t)
	require.NoError(t, fs.MkdirAll(flatDir, 0o755))
	require.NoError(t, afero.WriteFile(fs, flatDir+"/notes.html", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, flatDir+"/notes.meta.json", []byte("{not json"), 0o644))

	d, err := r.Get(ctx, "notes")
	require.NoError(t, err)
	require.Equal(t, "Notes", d.Title)
}

func TestFlatRepo_ListIgnoresStrayFiles(t *testing.T) {
	ctx := context.Background()
	r, fs := newFlat(t)
	require.NoError(t, fs.MkdirAll(flatDir+"/nested", 0o755))
	for name, body := range map[string]string{
		"orphan.meta.json": `{"title":"Orphan"}`,
		"README.txt":       "hello",
		"Bad_Name.html":    "<p>",
		".hidden.html":     "<p>",
	} {
		require.NoError(t, afero.WriteFile(fs, flatDir+"/"+name, []byte(body), 0o644))
	}
	require.NoError(t, r.Insert(ctx, &document.Document{Title: "kept", Slug: "kept", Content: "k", Created: time.Now()}))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "kept", list[0].Slug)
}

func TestFlatRepo_InsertCollision(t *testing.T) {
	ctx := context.Background()
	r, _ := newFlat(t)
	d := &document.Document{Title: "a", Slug: "a", Content: "1", Created: time.Now()}
	require.NoError(t, r.Insert(ctx, d))
	require.ErrorIs(t, r.Insert(ctx, d), document.ErrSlugCollision)
}

func TestFlatRepo_DeleteRemovesBothFiles(t *testing.T) {
	ctx := context.Background()
	r, fs := newFlat(t)
	require.NoError(t, r.Insert(ctx, &document.Document{Title: "bye", Slug: "bye", Content: "x", Created: time.Now()}))

	ok, err := r.Delete(ctx, "bye")
	require.NoError(t, err)
	require.True(t, ok)

	exists, err := afero.Exists(fs, flatDir+"/bye.html")
	require.NoError(t, err)
	require.False(t, exists)
	exists, err = afero.Exists(fs, flatDir+"/bye.meta.json")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestFlatRepo_EmptyDirectory(t *testing.T) {
	r, _ := newFlat(t)
	list, err := r.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}

// contentFailingBlobs rejects writes of .html blobs while fail is set.
type contentFailingBlobs struct {
	storage.Blobs
	fail bool
}

func (b *contentFailingBlobs) Put(ctx context.Context, key string, data []byte) error {
	if b.fail && strings.HasSuffix(key, contentSuffix) {
		return errors.New("disk full")
	}
	return b.Blobs.Put(ctx, key, data)
}

func TestFlatRepo_FailedContentWriteKeepsSidecar(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	blobs := &contentFailingBlobs{Blobs: storage.NewFSBlobs(fs, flatDir)}
	s := NewStore(NewFlatRepo(blobs), WithClock(newTickClock().now))

	_, err := s.Create(ctx, "My Doc", "v1")
	require.NoError(t, err)

	blobs.fail = true
	_, err = s.Update(ctx, "my-doc", "MY DOC", "v2")
	require.ErrorIs(t, err, document.ErrStorage)

	d, err := s.Get(ctx, "my-doc")
	require.NoError(t, err)
	require.Equal(t, "My Doc", d.Title)
	require.Equal(t, "v1", d.Content)
}

func TestFlatRepo_FailedInsertLeavesNoSidecar(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	blobs := &contentFailingBlobs{Blobs: storage.NewFSBlobs(fs, flatDir), fail: true}
	r := NewFlatRepo(blobs)

	err := r.Insert(ctx, &document.Document{Title: "New", Slug: "new", Content: "x", Created: time.Now()})
	require.ErrorIs(t, err, document.ErrStorage)

	exists, err := afero.Exists(fs, flatDir+"/new.meta.json")
	require.NoError(t, err)
	require.False(t, exists)
}
