package testkit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetRedisAddr 返回测试 Redis 地址
// 默认 localhost:6379，可通过 PAYIDEM_TEST_REDIS_ADDR 环境变量覆盖
func GetRedisAddr() string {
	if addr := os.Getenv("PAYIDEM_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// GetRedisClient 获取测试 Redis 客户端，连接不上直接跳过测试
// 使用 DB 1 避免与默认的 DB 0 冲突，生命周期由 t.Cleanup 管理
func GetRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         GetRedisAddr(),
		DB:           1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available at %s: %v", GetRedisAddr(), err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

// FlushRedis 清空 Redis 测试数据库（慎用！）
func FlushRedis(t *testing.T, client *redis.Client) {
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}
