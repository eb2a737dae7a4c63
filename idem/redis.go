package idem

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yunhan/payidem/errx"
)

// redisStore Redis 存储实现（非导出）
type redisStore struct {
	client *redis.Client
	prefix string
}

func newRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{
		client: client,
		prefix: prefix,
	}
}

func (rs *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := rs.client.Get(ctx, rs.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errx.Wrap(err, "idem: redis get")
	}
	return val, nil
}

func (rs *redisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := rs.client.Set(ctx, rs.prefix+key, val, ttl).Err(); err != nil {
		return errx.Wrap(err, "idem: redis set")
	}
	return nil
}

func (rs *redisStore) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := rs.client.Del(ctx, rs.prefix+key).Result()
	if err != nil {
		return false, errx.Wrap(err, "idem: redis del")
	}
	return removed > 0, nil
}
