package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/htmlhost/htmlhost/internal/tokens"
	"github.com/htmlhost/htmlhost/pkg/logger"
	"github.com/htmlhost/htmlhost/pkg/metrics"
)

// DefaultTTL is how long a session token stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// ErrInvalidSession is returned by Verify for any token that must not be
// accepted: malformed, badly signed, expired or revoked.
var ErrInvalidSession = errors.New("invalid session")

// Service issues and checks session tokens.
type Service struct {
	secret  string
	ttl     time.Duration
	revoked Revocations
	now     func() time.Time
}

func NewService(secret string, ttl time.Duration, revoked Revocations) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if revoked == nil {
		revoked = NewMemoryRevocations()
	}
	return &Service{secret: secret, ttl: ttl, revoked: revoked, now: time.Now}
}

// TTL returns the lifetime of newly issued sessions.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue creates a session token for username.
func (s *Service) Issue(_ context.Context, username string) (string, *Session, error) {
	raw, claims, err := tokens.Issue(s.secret, username, s.ttl, s.now())
	if err != nil {
		metrics.SessionEvents.WithLabelValues("issue", "error").Inc()
		return "", nil, err
	}
	metrics.SessionEvents.WithLabelValues("issue", "ok").Inc()
	return raw, toSession(claims), nil
}

// Verify returns the session carried by raw, or ErrInvalidSession.
func (s *Service) Verify(ctx context.Context, raw string) (*Session, error) {
	claims, err := tokens.Parse(s.secret, raw)
	if err != nil {
		metrics.SessionEvents.WithLabelValues("verify", "invalid").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if claims.ID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// fail closed
			logger.Errorf("session revocation lookup failed: %v", err)
			metrics.SessionEvents.WithLabelValues("verify", "error").Inc()
			return nil, fmt.Errorf("%w: revocation lookup: %w", ErrInvalidSession, err)
		}
		if revoked {
			metrics.SessionEvents.WithLabelValues("verify", "revoked").Inc()
			return nil, fmt.Errorf("%w: revoked", ErrInvalidSession)
		}
	}
	metrics.SessionEvents.WithLabelValues("verify", "ok").Inc()
	return toSession(claims), nil
}

// Revoke invalidates raw until it would have expired. Revoking an invalid
// token is a no-op.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	claims, err := tokens.Parse(s.secret, raw)
	if err != nil || claims.ID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		metrics.SessionEvents.WithLabelValues("revoke", "error").Inc()
		return err
	}
	metrics.SessionEvents.WithLabelValues("revoke", "ok").Inc()
	return nil
}

func toSession(c *tokens.Claims) *Session {
	s := &Session{ID: c.ID, Username: c.Username}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
