package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BlackMission/workosauth/internal/domain"
)

const defaultKeyPrefix = "workosauth:session:"

// RedisStore keeps session entries in Redis, one key per entry, so a
// consume is a single GETDEL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisClient connects to the Redis instance at url and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
	}
}

func (r *RedisStore) entryKey(sessionID, key string) string {
	return r.prefix + sessionID + ":" + key
}

func (r *RedisStore) indexKey(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisStore) Set(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error {
	if sessionID == "" || key == "" {
		return fmt.Errorf("session: missing session id or key")
	}
	if ttl <= 0 {
		return fmt.Errorf("session: ttl must be positive")
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.entryKey(sessionID, key), value, ttl)
		pipe.SAdd(ctx, r.indexKey(sessionID), key)
		pipe.Expire(ctx, r.indexKey(sessionID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: failed to store %q: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Take(ctx context.Context, sessionID, key string) ([]byte, error) {
	var get *redis.StringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.GetDel(ctx, r.entryKey(sessionID, key))
		pipe.SRem(ctx, r.indexKey(sessionID), key)
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to take %q: %w", key, err)
	}
	return get.Bytes()
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	keys, err := r.client.SMembers(ctx, r.indexKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("session: failed to list entries: %w", err)
	}
	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, r.entryKey(sessionID, k))
	}
	del = append(del, r.indexKey(sessionID))
	return r.client.Del(ctx, del...).Err()
}
