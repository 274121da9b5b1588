package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Revocations records sessions that were logged out before they expired.
// Entries only need to outlive the token they revoke.
type Revocations interface {
	Revoke(ctx context.Context, id string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// MongoRevocations keeps revoked session ids in a collection with a TTL
// index on expiresAt, so MongoDB purges them once the token is dead anyway.
type MongoRevocations struct {
	col *mongo.Collection
}

type revokedSession struct {
	ID        string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func NewMongoRevocations(ctx context.Context, col *mongo.Collection) (*MongoRevocations, error) {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expiresAt_ttl"),
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("ensure revoked_sessions ttl index: %w", err)
	}
	return &MongoRevocations{col: col}, nil
}

func (r *MongoRevocations) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": id}, revokedSession{ID: id, ExpiresAt: expiresAt.UTC()}, opts)
	return err
}

func (r *MongoRevocations) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevocations is a process-local Revocations for development and tests.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = expiresAt
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[id]
	if !ok {
		return false, nil
	}
	if m.now().After(exp) {
		delete(m.revoked, id)
		return false, nil
	}
	return true, nil
}
