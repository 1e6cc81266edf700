package state

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used when a redis location names none
const DefaultRedisKey = "ddns:last_update"

// redisClient is the subset of *redis.Client used by RedisBackend
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisBackend keeps the value under a single Redis key
type RedisBackend struct {
	client redisClient
	key    string
	addr   string
}

// NewRedisBackend creates a backend from a URL such as
// redis://:password@host:6379/0?key=ddns:home. The key parameter is optional.
func NewRedisBackend(rawURL string) (*RedisBackend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis location: %w", err)
	}

	q := u.Query()
	key := q.Get("key")
	if key == "" {
		key = DefaultRedisKey
	}
	// go-redis rejects options it does not know
	q.Del("key")
	u.RawQuery = q.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("invalid redis location: %w", err)
	}

	return newRedisBackend(redis.NewClient(opts), key, opts.Addr), nil
}

func newRedisBackend(client redisClient, key, addr string) *RedisBackend {
	return &RedisBackend{client: client, key: key, addr: addr}
}

// Get fetches the key
func (b *RedisBackend) Get(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: key %s not set", ErrNotFound, b.key)
		}
		return nil, fmt.Errorf("redis get %s: %w", b.key, err)
	}
	return data, nil
}

// Put sets the key without expiry
func (b *RedisBackend) Put(ctx context.Context, value []byte) error {
	if err := b.client.Set(ctx, b.key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", b.key, err)
	}
	return nil
}

// Close closes the redis client
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) String() string {
	return fmt.Sprintf("redis://%s/%s", b.addr, b.key)
}
