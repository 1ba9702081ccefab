package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: rdb, prefix: "otp:"}, nil
}

func (s *RedisStore) key(phone string) string { return s.prefix + phone }

func (s *RedisStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	h, err := hash(code)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(phone), h, ttl).Err()
}

func (s *RedisStore) Verify(ctx context.Context, phone, code string) (bool, error) {
	h, err := s.client.Get(ctx, s.key(phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return matches(h, code)
}

func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, s.key(phone)).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
