package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRevocations_RevokeAndExpire(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRevocations(client, "")
	ctx := context.Background()

	ok, err := repo.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Revoke(ctx, "sess-1", time.Now().Add(5*time.Second)))
	require.True(t, m.Exists("revoked:sess-1"))

	ok, err = repo.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)

	// advance past TTL
	m.FastForward(6 * time.Second)
	ok, err = repo.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisRevocations_AlreadyExpiredIsNoop(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRevocations(client, "test:revoked:")
	require.NoError(t, repo.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	require.False(t, m.Exists("test:revoked:old"))
}

func TestService_WithRedisRevocations(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	svc := NewService(testSecret, time.Hour, NewRedisRevocations(client, ""))
	ctx := context.Background()

	tok, sess, err := svc.Issue(ctx, "admin")
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, tok))
	require.True(t, m.Exists("revoked:"+sess.ID))

	_, err = svc.Verify(ctx, tok)
	require.ErrorIs(t, err, ErrInvalidSession)

	// Redis outage fails closed
	m.Close()
	tok2, _, err := svc.Issue(ctx, "admin")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, tok2)
	require.ErrorIs(t, err, ErrInvalidSession)
}
