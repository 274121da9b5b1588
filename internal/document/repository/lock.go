package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/htmlhost/htmlhost/pkg/logger"
)

// Locker serializes writes per slug. Lock acquires every key (in sorted order,
// so two renames never deadlock) and returns a function releasing them all.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

func lockOrder(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LocalLocker is an in-process keyed mutex. Entries are reference counted and
// dropped when no goroutine holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = lockOrder(keys)
	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlockOne(held[i])
		}
	}
	for _, k := range keys {
		if err := l.lockOne(ctx, k); err != nil {
			release()
			return nil, err
		}
		held = append(held, k)
	}
	return release, nil
}

func (l *LocalLocker) lockOne(ctx context.Context, key string) error {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.release(key, kl)
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *LocalLocker) unlockOne(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.locks[key]
	if !ok {
		return
	}
	<-kl.ch
	l.release(key, kl)
}

func (l *LocalLocker) release(key string, kl *keyLock) {
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// releaseScript deletes a lock key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds slug locks in Redis so several processes sharing one
// backend serialize their writes. Each key is SET NX with a TTL so a crashed
// holder cannot block a slug forever.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a Redis-based locker. Prefix may be empty.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = "lock:document:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, retry: 25 * time.Millisecond}
}

func (r *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = lockOrder(keys)
	type held struct{ key, token string }
	acquired := make([]held, 0, len(keys))
	release := func() {
		// release even when the caller's context is already done
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(acquired) - 1; i >= 0; i-- {
			h := acquired[i]
			if err := releaseScript.Run(rctx, r.client, []string{h.key}, h.token).Err(); err != nil {
				logger.Warnf("redis lock: release %s failed: %v", h.key, err)
			}
		}
	}
	for _, k := range keys {
		key := r.prefix + k
		token := uuid.NewString()
		if err := r.acquire(ctx, key, token); err != nil {
			release()
			return nil, err
		}
		acquired = append(acquired, held{key: key, token: token})
	}
	return release, nil
}

func (r *RedisLocker) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("redis lock %s: %w", key, ctx.Err())
		case <-t.C:
		}
	}
}
