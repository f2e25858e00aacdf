// Package store exposes the queue store primitives the job core relies on.
//
// The core only ever talks to Store; Redis is the production backing and
// every primitive maps to one atomic Redis command (except Keys, which
// iterates SCAN cursors).
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NoExpiry is returned by TTL for keys that exist without an expiration.
const NoExpiry = time.Duration(-1)

// Missing is returned by TTL for keys that do not exist.
const Missing = time.Duration(-2)

// Store is the set of list, sorted-set and key primitives used by the queue.
type Store interface {
	// PushTail appends value to the tail of the list at key.
	PushTail(ctx context.Context, key string, value []byte) error
	// PopHead atomically removes and returns the head of the list at key.
	// It returns (nil, nil) when the list is empty.
	PopHead(ctx context.Context, key string) ([]byte, error)
	// Len returns the length of the list at key.
	Len(ctx context.Context, key string) (int64, error)
	// Range returns list elements between start and stop (inclusive, negative from tail).
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	// ListRem removes the first occurrence of value from the list at key.
	ListRem(ctx context.Context, key string, value string) (int64, error)
	// TrimList keeps only the elements between start and stop (inclusive).
	TrimList(ctx context.Context, key string, start, stop int64) error

	// ZAdd adds value with score to the sorted set at key.
	ZAdd(ctx context.Context, key string, score float64, value []byte) error
	// ZRangeByScore returns up to limit members with 0 <= score <= maxScore, ascending.
	ZRangeByScore(ctx context.Context, key string, maxScore float64, limit int64) ([]string, error)
	// ZRem removes value from the sorted set at key and reports whether it was present.
	ZRem(ctx context.Context, key string, value string) (bool, error)
	// ZCard returns the cardinality of the sorted set at key.
	ZCard(ctx context.Context, key string) (int64, error)

	// Set stores value at key with the given TTL (0 means no expiry).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value at key, or (nil, nil) when missing.
	Get(ctx context.Context, key string) ([]byte, error)
	// Del deletes keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)
	// TTL returns the remaining time to live, NoExpiry or Missing.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Keys returns every key matching the glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// Redis implements Store on top of a go-redis client.
type Redis struct {
	rdb redis.UniversalClient
}

// NewRedis wraps a go-redis client. It accepts single-node, sentinel and cluster clients.
func NewRedis(rdb redis.UniversalClient) *Redis {
	return &Redis{rdb: rdb}
}

// Client exposes the underlying go-redis client.
func (r *Redis) Client() redis.UniversalClient { return r.rdb }

func (r *Redis) PushTail(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.RPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("store: rpush %s: %w", key, err)
	}
	return nil
}

func (r *Redis) PopHead(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.LPop(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: lpop %s: %w", key, err)
	}
	return b, nil
}

func (r *Redis) Len(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("store: llen %s: %w", key, err)
	}
	return n, nil
}

func (r *Redis) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := r.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("store: lrange %s: %w", key, err)
	}
	return vals, nil
}

func (r *Redis) ListRem(ctx context.Context, key string, value string) (int64, error) {
	n, err := r.rdb.LRem(ctx, key, 1, value).Result()
	if err != nil {
		return 0, fmt.Errorf("store: lrem %s: %w", key, err)
	}
	return n, nil
}

func (r *Redis) TrimList(ctx context.Context, key string, start, stop int64) error {
	if err := r.rdb.LTrim(ctx, key, start, stop).Err(); err != nil {
		return fmt.Errorf("store: ltrim %s: %w", key, err)
	}
	return nil
}

func (r *Redis) ZAdd(ctx context.Context, key string, score float64, value []byte) error {
	if err := r.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: value}).Err(); err != nil {
		return fmt.Errorf("store: zadd %s: %w", key, err)
	}
	return nil
}

func (r *Redis) ZRangeByScore(ctx context.Context, key string, maxScore float64, limit int64) ([]string, error) {
	members, err := r.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatFloat(maxScore, 'f', -1, 64),
		Count: limit,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("store: zrangebyscore %s: %w", key, err)
	}
	return members, nil
}

func (r *Redis) ZRem(ctx context.Context, key string, value string) (bool, error) {
	n, err := r.rdb.ZRem(ctx, key, value).Result()
	if err != nil {
		return false, fmt.Errorf("store: zrem %s: %w", key, err)
	}
	return n == 1, nil
}

func (r *Redis) ZCard(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("store: zcard %s: %w", key, err)
	}
	return n, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", key, err)
	}
	return b, nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("store: del: %w", err)
	}
	return n, nil
}

func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("store: ttl %s: %w", key, err)
	}
	// go-redis reports the -1/-2 sentinels as raw nanosecond values.
	switch d {
	case -1:
		return NoExpiry, nil
	case -2:
		return Missing, nil
	}
	return d, nil
}

// Keys walks SCAN cursors instead of issuing KEYS so large keyspaces do not block Redis.
func (r *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		batch, next, err := r.rdb.Scan(ctx, cursor, pattern, 256).Result()
		if err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", pattern, err)
		}
		out = append(out, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	return out, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}
