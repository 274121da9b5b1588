package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/htmlhost/htmlhost/internal/document"
)

func newMockRepo(mt *mtest.T) *MongoRepo {
	mt.Helper()
	mt.AddMockResponses(mtest.CreateSuccessResponse()) // createIndexes
	r, err := NewMongoRepo(context.Background(), mt.Coll)
	require.NoError(mt, err)
	return r
}

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	mt.Run("index creation failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized"}))
		_, err := NewMongoRepo(ctx, mt.Coll)
		require.Error(mt, err)
	})

	mt.Run("get found", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "htmlhost.documents", mtest.FirstBatch, bson.D{
			{Key: "title", Value: "A"},
			{Key: "slug", Value: "a"},
			{Key: "content", Value: "<p>x</p>"},
			{Key: "created", Value: created},
		}))
		d, err := r.Get(ctx, "a")
		require.NoError(mt, err)
		require.NotNil(mt, d)
		require.Equal(mt, "<p>x</p>", d.Content)
		require.True(mt, created.Equal(d.Created))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "htmlhost.documents", mtest.FirstBatch))
		d, err := r.Get(ctx, "nope")
		require.NoError(mt, err)
		require.Nil(mt, d)
	})

	mt.Run("list", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "htmlhost.documents", mtest.FirstBatch,
			bson.D{{Key: "title", Value: "B"}, {Key: "slug", Value: "b"}, {Key: "created", Value: created.Add(time.Hour)}},
			bson.D{{Key: "title", Value: "A"}, {Key: "slug", Value: "a"}, {Key: "created", Value: created}},
		))
		list, err := r.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		require.Equal(mt, "b", list[0].Slug)
		require.Equal(mt, "A", list[1].Title)
	})

	mt.Run("insert duplicate is a collision", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))
		err := r.Insert(ctx, &document.Document{Title: "A", Slug: "a", Content: "x", Created: created})
		require.ErrorIs(mt, err, document.ErrSlugCollision)
	})

	mt.Run("insert other failure is a storage error", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 91, Message: "shutting down"}))
		err := r.Insert(ctx, &document.Document{Title: "A", Slug: "a", Content: "x", Created: created})
		require.ErrorIs(mt, err, document.ErrStorage)
	})

	mt.Run("delete", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		ok, err := r.Delete(ctx, "a")
		require.NoError(mt, err)
		require.True(mt, ok)
		ok, err = r.Delete(ctx, "a")
		require.NoError(mt, err)
		require.False(mt, ok)
	})

	mt.Run("rename is a single update", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		err := r.Rename(ctx, "a", &document.Document{Title: "B", Slug: "b", Content: "y"})
		require.NoError(mt, err)
	})

	mt.Run("rename onto taken slug", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))
		err := r.Rename(ctx, "a", &document.Document{Title: "B", Slug: "b", Content: "y"})
		require.ErrorIs(mt, err, document.ErrSlugCollision)
	})

	mt.Run("rename of vanished source inserts", func(mt *mtest.T) {
		r := newMockRepo(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(),
		)
		err := r.Rename(ctx, "a", &document.Document{Title: "B", Slug: "b", Content: "y", Created: created})
		require.NoError(mt, err)
	})

	mt.Run("store rename uses native rename", func(mt *mtest.T) {
		r := newMockRepo(mt)
		s := NewStore(r)
		mt.AddMockResponses(
			// Get(old)
			mtest.CreateCursorResponse(0, "htmlhost.documents", mtest.FirstBatch, bson.D{
				{Key: "title", Value: "A"}, {Key: "slug", Value: "a"}, {Key: "content", Value: "x"}, {Key: "created", Value: created},
			}),
			// Get(new) finds nothing
			mtest.CreateCursorResponse(0, "htmlhost.documents", mtest.FirstBatch),
			// UpdateOne
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)
		slug, err := s.Update(ctx, "a", "B", "y")
		require.NoError(mt, err)
		require.Equal(mt, "b", slug)
	})
}
