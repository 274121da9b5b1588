package users

import (
	"context"
	"errors"

	"github.com/htmlhost/htmlhost/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is compared against when the username is unknown so that both
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// Authenticate checks username and password and returns the account.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	hash := dummyHash
	if u != nil {
		hash = []byte(u.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureAccount makes sure the configured account exists in repo. A missing
// account is created from password or passwordHash. An existing one is only
// updated when passwordHash is set and differs from the stored hash.
func EnsureAccount(ctx context.Context, repo *MongoUserRepository, username, password, passwordHash string) (*models.User, error) {
	if username == "" {
		return nil, errors.New("users: empty username")
	}
	existing, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil && (passwordHash == "" || existing.PasswordHash == passwordHash) {
		return existing, nil
	}
	hash, err := hashPassword(password, passwordHash)
	if err != nil {
		return nil, err
	}
	return repo.Upsert(ctx, &models.User{Username: username, PasswordHash: hash})
}
