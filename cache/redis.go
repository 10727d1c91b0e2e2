package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "travelblog:page:"

// NewRedisClient connects to addr, which is either host:port or a redis://
// URL, and checks the connection.
func NewRedisClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisStore keeps pages in Redis under <prefix><scope>:<hash> and lets
// Redis expire them.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key Key) string {
	return s.prefix + key.Scope + ":" + key.hash()
}

func (s *RedisStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	page, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return page, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, page []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), page, ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, scope string) (int, error) {
	pattern := s.prefix + "*"
	if scope != "" {
		pattern = s.prefix + scope + ":*"
	}

	removed := 0
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, err
		}
		removed += int(n)
	}
	return removed, iter.Err()
}
