package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"aitools-backend/internal/database"

	"github.com/redis/go-redis/v9"
)

// errStaleGeneration aborts a cache fill that raced with an invalidation.
var errStaleGeneration = errors.New("history generation changed")

// RedisCache stores each user's listings in one hash keyed by limit, so a
// single DEL invalidates every cached page for the user. The generation
// counter lives in its own key without a TTL so it never resets.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, addr, password string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	res, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to redis at %s: %w", addr, err)
	}
	slog.Info("connected to redis", "addr", addr, "ping", res)

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, userID string, limit int) ([]database.History, bool, error) {
	data, err := c.client.HGet(ctx, historyKey(userID), strconv.Itoa(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading history cache: %w", err)
	}

	var items []database.History
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("error decoding cached history: %w", err)
	}
	return items, true, nil
}

func (c *RedisCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading history generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) Set(ctx context.Context, userID string, gen int64, limit int, items []database.History) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("error encoding history for cache: %w", err)
	}

	key, genKey := historyKey(userID), generationKey(userID)
	fill := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, strconv.Itoa(limit), data)
			if c.ttl > 0 {
				pipe.Expire(ctx, key, c.ttl)
			}
			return nil
		})
		return err
	}

	err = c.client.Watch(ctx, fill, genKey)
	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		slog.Debug("skipping stale history cache fill", "user_id", userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("error writing history cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, historyKey(userID))
		pipe.Incr(ctx, generationKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("error invalidating history cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
