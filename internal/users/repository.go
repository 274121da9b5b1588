package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/htmlhost/htmlhost/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository looks up accounts by username. GetByUsername returns nil, nil
// when there is no such account.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// StaticRepository serves the single account configured through the
// environment.
type StaticRepository struct {
	user models.User
}

// NewStaticRepository builds the account from a plain password or a bcrypt
// hash. A hash takes precedence.
func NewStaticRepository(username, password, passwordHash string) (*StaticRepository, error) {
	if username == "" {
		return nil, errors.New("users: empty username")
	}
	hash, err := hashPassword(password, passwordHash)
	if err != nil {
		return nil, err
	}
	return &StaticRepository{user: models.User{
		ID:           username,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}}, nil
}

// hashPassword returns passwordHash after checking it is a bcrypt hash, or
// hashes password when no hash is given.
func hashPassword(password, passwordHash string) (string, error) {
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return "", fmt.Errorf("users: invalid password hash: %w", err)
		}
		return passwordHash, nil
	}
	if password == "" {
		return "", errors.New("users: no password or password hash configured")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(b), nil
}

func (r *StaticRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if subtle.ConstantTimeCompare([]byte(username), []byte(r.user.Username)) != 1 {
		return nil, nil
	}
	u := r.user
	return &u, nil
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

// Upsert stores u keyed by username, keeping createdAt of an existing account.
func (r *MongoUserRepository) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	filter := bson.M{"username": u.Username}
	update := bson.M{
		"$set":         bson.M{"passwordHash": u.PasswordHash},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
