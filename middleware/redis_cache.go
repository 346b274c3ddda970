package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrek82/jrepo/core"
)

const redisKeyPrefix = "jrepo:cache:"

// RedisCache is the MemoryCache maintenance strategy over Redis: the
// before side invalidates a table's keys on writes, the after side
// records successful read results as JSON. Every key for a table is
// tracked in a per-table set so invalidation needs no SCAN.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(opt *redis.Options, ttl time.Duration) *RedisCache {
	return &RedisCache{
		Client: redis.NewClient(opt),
		TTL:    ttl,
	}
}

// Ping verifies connectivity.
func (m *RedisCache) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx).Err()
}

func (m *RedisCache) Close() error {
	return m.Client.Close()
}

func (m *RedisCache) Apply(ctx context.Context, value any, r *core.Resolution) (any, error) {
	switch r.Phase() {
	case core.PhaseBefore:
		if isWrite(r.Op) {
			m.invalidate(ctx, tableOf(r.Resource()))
		}
	case core.PhaseAfter:
		if isRead(r.Op) && value != nil {
			table := tableOf(r.Resource())
			if table == "" {
				table = tableOf(value)
			}
			m.store(ctx, table, cacheKey(table, r.Op, r.Args), value)
		}
	}
	return value, nil
}

// Lookup unmarshals a cached read result into dest and reports whether
// the key was present.
func (m *RedisCache) Lookup(ctx context.Context, table string, op core.Operation, args []any, dest any) (bool, error) {
	key := redisKeyPrefix + cacheKey(table, op, args)
	data, err := m.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *RedisCache) store(ctx context.Context, table, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	full := redisKeyPrefix + key
	// Cache maintenance is best effort; a Redis failure never fails the
	// repository call.
	m.Client.Set(ctx, full, data, m.TTL)
	m.Client.SAdd(ctx, redisKeyPrefix+"keys:"+table, full)
}

func (m *RedisCache) invalidate(ctx context.Context, table string) {
	if table == "" {
		return
	}
	setKey := redisKeyPrefix + "keys:" + table
	keys, err := m.Client.SMembers(ctx, setKey).Result()
	if err != nil {
		return
	}
	if len(keys) > 0 {
		m.Client.Del(ctx, keys...)
	}
	m.Client.Del(ctx, setKey)
}
