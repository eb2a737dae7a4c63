package idem

import (
	"context"
	"time"
)

// Store 幂等记录存储契约
//
// 所有守卫通过它与共享缓存交互。条目一经写入不再原地修改，
// 直到 TTL 过期，因此实现无需提供任何事务或锁语义。
// 默认提供 Redis / Memory 实现，也可通过 WithStore 注入自定义实现
// （如单测中的内存假件）。
type Store interface {
	// Get 读取条目；不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入条目并设置过期时间
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// Delete 删除条目，返回是否确实存在
	// 供运维/测试的"清除幂等键"工具使用
	Delete(ctx context.Context, key string) (bool, error)
}
