package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultSessionKeyPrefix = "router:session:"

// RedisSessionStore shares counters between router instances. Keys expire after ttl so
// abandoned sessions do not accumulate.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = DefaultSessionKeyPrefix
	}
	return &RedisSessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// MarkUnclear relies on SETNX so that only one concurrent caller sees a previous value of 0.
func (s *RedisSessionStore) MarkUnclear(ctx context.Context, sessionID string) (int, error) {
	key := s.key(sessionID)

	created, err := s.client.SetNX(ctx, key, 1, s.ttl).Result()
	if err != nil {
		return 0, fmt.Errorf("mark session %s unclear: %w", sessionID, err)
	}
	if created {
		return 0, nil
	}

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; the key existed when we looked
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	n, err := strconv.Atoi(val)
	if err != nil || n < 1 {
		return 1, nil
	}
	return n, nil
}

func (s *RedisSessionStore) Count(ctx context.Context, sessionID string) (int, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("session %s holds non-numeric counter %q", sessionID, val)
	}
	return n, nil
}

func (s *RedisSessionStore) Reset(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("reset session %s: %w", sessionID, err)
	}
	return nil
}
