package submission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/dishshot-intake/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Guard rejects re-entrant submissions for the same key.
type Guard interface {
	// Acquire returns false when key is already held.
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

// LocalGuard holds keys in process.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return false, nil
	}
	g.held[key] = struct{}{}
	return true, nil
}

func (g *LocalGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	delete(g.held, key)
	g.mu.Unlock()
}

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lock only if it still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisGuard shares the guard between instances with SET NX. While a holder is alive
// the lock is renewed every ttl/3, so ttl only bounds how long a crashed instance can
// block a session.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration

	mu   sync.Mutex
	held map[string]heldLock
}

type heldLock struct {
	token string
	stop  chan struct{}
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if client == nil {
		panic("submission: RedisGuard needs a redis client")
	}
	if ttl <= 0 {
		panic("submission: RedisGuard needs a positive ttl")
	}
	return &RedisGuard{client: client, ttl: ttl, held: make(map[string]heldLock)}
}

func lockKey(key string) string {
	return fmt.Sprintf("submitting:%s", key)
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	token := uuid.New().String()
	ok, err := g.client.SetNX(ctx, lockKey(key), token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	lock := heldLock{token: token, stop: make(chan struct{})}
	g.mu.Lock()
	if prev, exists := g.held[key]; exists {
		close(prev.stop)
	}
	g.held[key] = lock
	g.mu.Unlock()

	go g.keepAlive(key, lock)
	return true, nil
}

// keepAlive renews the lock until Release, or until the lock is no longer ours.
func (g *RedisGuard) keepAlive(key string, lock heldLock) {
	interval := g.ttl / 3
	if interval <= 0 {
		interval = g.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-lock.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			renewed, err := renewScript.Run(ctx, g.client, []string{lockKey(key)}, lock.token, g.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				logger.Warn("Failed to renew submission lock", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
				continue
			}
			if renewed == 0 {
				logger.Warn("Submission lock lost before release", map[string]interface{}{
					"key": key,
				})
				return
			}
		}
	}
}

func (g *RedisGuard) Release(ctx context.Context, key string) {
	g.mu.Lock()
	lock, ok := g.held[key]
	delete(g.held, key)
	g.mu.Unlock()
	if !ok {
		return
	}
	close(lock.stop)
	// Release runs after the request may have been cancelled.
	_ = releaseScript.Run(context.WithoutCancel(ctx), g.client, []string{lockKey(key)}, lock.token).Err()
}
