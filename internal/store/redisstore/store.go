package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps short-lived one-time MFA codes. Nothing else in the server
// touches Redis; chat state stays in process memory.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Close() error { return s.rdb.Close() }

func mfaKey(loginKey string) string { return "mfa:code:" + loginKey }

func (s *Store) SetMFACode(ctx context.Context, loginKey, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, mfaKey(loginKey), code, ttl).Err()
}

// GetMFACode returns redis.Nil when no code is pending.
func (s *Store) GetMFACode(ctx context.Context, loginKey string) (string, error) {
	return s.rdb.Get(ctx, mfaKey(loginKey)).Result()
}

func (s *Store) DeleteMFACode(ctx context.Context, loginKey string) error {
	return s.rdb.Del(ctx, mfaKey(loginKey)).Err()
}
