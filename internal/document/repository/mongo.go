package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/htmlhost/htmlhost/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SlugIndexName is the name of the unique index on "slug".
const SlugIndexName = "slug_unique"

// MongoRepo implements a MongoDB-backed Backend. Records are
// {title, slug, content, created}; uniqueness of slug is enforced by a unique
// index, and renames are a single UpdateOne.
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo creates the unique slug index on col and returns the repo. The
// index is created here, once per constructed repo, rather than relying on any
// process-wide registration.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idxModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(SlugIndexName),
	}
	if _, err := col.Indexes().CreateOne(ctx, idxModel); err != nil {
		return nil, fmt.Errorf("ensure slug index: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]document.Summary, error) {
	const op = "repository.mongo.List"
	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}}).
		SetProjection(bson.M{"content": 0})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer cur.Close(ctx)
	out := []document.Summary{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, storageErr(op, err)
		}
		out = append(out, d.Summary())
	}
	if err := cur.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return out, nil
}

func (m *MongoRepo) Get(ctx context.Context, slug string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storageErr("repository.mongo.Get", err)
	}
	return &d, nil
}

func (m *MongoRepo) Insert(ctx context.Context, d *document.Document) error {
	if _, err := m.col.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return collisionErr(d.Slug)
		}
		return storageErr("repository.mongo.Insert", err)
	}
	return nil
}

func (m *MongoRepo) Replace(ctx context.Context, d *document.Document) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := m.col.ReplaceOne(ctx, bson.M{"slug": d.Slug}, d, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return collisionErr(d.Slug)
		}
		return storageErr("repository.mongo.Replace", err)
	}
	return nil
}

// Rename moves the record at from to d.Slug, replacing title and content and
// leaving created untouched. If from has disappeared in the meantime the
// document is inserted instead.
func (m *MongoRepo) Rename(ctx context.Context, from string, d *document.Document) error {
	set := bson.M{"slug": d.Slug, "title": d.Title, "content": d.Content}
	res, err := m.col.UpdateOne(ctx, bson.M{"slug": from}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return collisionErr(d.Slug)
		}
		return storageErr("repository.mongo.Rename", err)
	}
	if res.MatchedCount == 0 {
		return m.Insert(ctx, d)
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, slug string) (bool, error) {
	res, err := m.col.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return false, storageErr("repository.mongo.Delete", err)
	}
	return res.DeletedCount > 0, nil
}
