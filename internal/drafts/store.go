// Package drafts keeps unsaved editor state for panel users, so that an article in
// progress survives a reload or a closed tab.
//
// Drafts are keyed by an anonymous visitor id (a random uuid held in a cookie) and a
// draft key naming the form. They are opaque to this package.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/radioconexion/site/internal/session"
)

// DefaultTTL is how long an untouched draft is kept
const DefaultTTL = 30 * 24 * time.Hour

// Store persists drafts
type Store interface {
	Load(ctx context.Context, visitor string, key string) ([]byte, bool, error)
	Save(ctx context.Context, visitor string, key string, data []byte) error
	Delete(ctx context.Context, visitor string, key string) error
}

// RedisStore keeps each draft in its own redis key, expiring after a period of
// inactivity
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Key is the redis key under which a draft is stored
func Key(visitor string, key string) string {
	return "draft:" + visitor + ":" + key
}

func (s *RedisStore) Load(ctx context.Context, visitor string, key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, Key(visitor, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load draft: %w", err)
	}
	return data, true, nil
}

func (s *RedisStore) Save(ctx context.Context, visitor string, key string, data []byte) error {
	if err := s.rdb.Set(ctx, Key(visitor, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, visitor string, key string) error {
	if err := s.rdb.Del(ctx, Key(visitor, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// VisitorId returns the visitor's anonymous id, assigning a new one if they don't
// have one yet
func VisitorId(store session.Store) (string, error) {
	if id, ok := store.Get(session.KeyVisitorId); ok {
		if _, err := uuid.Parse(id); err == nil {
			return id, nil
		}
	}
	id := uuid.NewString()
	if err := store.Set(session.KeyVisitorId, id); err != nil {
		return "", err
	}
	return id, nil
}
