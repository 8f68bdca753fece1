// Package idempotency remembers which order an Idempotency-Key produced so a
// retried create request returns the original order.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyOrderCreate = "idem:order:create:%s"
	pending        = ""
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) key(key string) string {
	return fmt.Sprintf(keyOrderCreate, key)
}

// Claim takes the key when nobody holds it. Otherwise it returns the order id
// stored for the key, empty while the first request is still running.
func (s *Store) Claim(ctx context.Context, key string) (bool, string, error) {
	ok, err := s.rdb.SetNX(ctx, s.key(key), pending, s.ttl).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}

	orderID, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; the client can retry.
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	return false, orderID, nil
}

func (s *Store) Complete(ctx context.Context, key, orderID string) error {
	return s.rdb.Set(ctx, s.key(key), orderID, s.ttl).Err()
}

func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}

// NewClient returns a client for addr after checking the server answers.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}
