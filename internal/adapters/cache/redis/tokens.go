package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/clout/internal/auth"
)

const keyPrefix = "clout:"

// TokenStore implements auth.TokenStore with SET EX, so expiry is enforced
// by Redis itself.
type TokenStore struct {
	rdb *redis.Client
}

// NewTokenStore creates a TokenStore backed by c.
func NewTokenStore(c *Client) *TokenStore {
	return &TokenStore{rdb: c.rdb}
}

var _ auth.TokenStore = (*TokenStore)(nil)

func tokenKey(key string) string { return keyPrefix + key }

func (s *TokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, tokenKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, tokenKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", auth.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %s: %w", key, err)
	}
	return v, nil
}

func (s *TokenStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, tokenKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", key, err)
	}
	return nil
}
