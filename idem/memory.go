package idem

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/yunhan/payidem/errx"
)

// memoryStore 进程内存储实现，基于 otter（非导出，仅单机）。
//
// 与 Redis 实现保持相同的 TTL 语义：过期从写入开始计算，
// 读取不会续期。
type memoryStore struct {
	cache  *otter.Cache[string, []byte]
	prefix string
}

func newMemoryStore(prefix string, capacity int) (Store, error) {
	// 默认过期时间仅作兜底，实际 TTL 在每次 Set 时覆盖
	cache, err := otter.New(&otter.Options[string, []byte]{
		MaximumSize:      capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](24 * time.Hour),
	})
	if err != nil {
		return nil, errx.Wrap(err, "idem: build otter cache")
	}

	return &memoryStore{cache: cache, prefix: prefix}, nil
}

func (ms *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	val, ok := ms.cache.GetIfPresent(ms.prefix + key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (ms *memoryStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := ms.prefix + key
	ms.cache.Set(k, append([]byte(nil), val...))
	if ttl > 0 {
		ms.cache.SetExpiresAfter(k, ttl)
	}
	return nil
}

func (ms *memoryStore) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	k := ms.prefix + key
	_, existed := ms.cache.GetIfPresent(k)
	ms.cache.Invalidate(k)
	return existed, nil
}
