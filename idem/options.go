package idem

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/yunhan/payidem/zlog"
)

// Option 组件初始化选项函数
type Option func(*options)

// ExecOption 单次执行选项函数
type ExecOption func(*execOptions)

// MiddlewareOption Gin 中间件选项函数
type MiddlewareOption func(*middlewareOptions)

// InterceptorOption gRPC 拦截器选项函数
type InterceptorOption func(*interceptorOptions)

// options 组件初始化选项配置（内部使用，小写）
type options struct {
	logger      zlog.Logger
	redisClient *redis.Client
	store       Store
	registerer  prometheus.Registerer
}

// execOptions 单次执行选项配置
type execOptions struct {
	ttl          time.Duration
	dateBucketed bool
	policy       DuplicatePolicy
}

// middlewareOptions Gin 中间件选项配置
type middlewareOptions struct {
	userFunc func(*gin.Context) string // 调用方身份解析，返回空串按匿名处理
}

// interceptorOptions gRPC 拦截器选项配置
type interceptorOptions struct {
	metadataKey string        // 幂等令牌的 metadata 键名，默认 "x-idempotency-key"
	identityKey string        // 调用方身份的 metadata 键名，默认 "x-employee-id"
	ttl         time.Duration // 缓存响应 TTL，默认取 Config.DefaultTTL
}

// WithLogger 设置 Logger
func WithLogger(logger zlog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRedisClient 注入 Redis 客户端（redis 驱动必需）
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) {
		if client != nil {
			o.redisClient = client
		}
	}
}

// WithStore 注入自定义存储实现，优先于 Driver 配置。
// 主要用于测试（内存假件、故障注入）。
func WithStore(store Store) Option {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
	}
}

// WithMetrics 注册 Prometheus 指标到给定的 Registerer。
// 不设置则不输出指标。
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTTL 覆盖本次执行完成记录的有效期
func WithTTL(ttl time.Duration) ExecOption {
	return func(o *execOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithRaiseOnDuplicate 重复调用时返回 *DuplicateError 而不是缓存结果
func WithRaiseOnDuplicate() ExecOption {
	return func(o *execOptions) {
		o.policy = DuplicateRaise
	}
}

// WithUserFunc 设置调用方身份解析函数
// 默认从 ident 中间件写入的 Claims 读取员工 ID
func WithUserFunc(fn func(*gin.Context) string) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.userFunc = fn
		}
	}
}

// WithMetadataKey 设置 gRPC 拦截器的幂等令牌 metadata 键名
func WithMetadataKey(key string) InterceptorOption {
	return func(o *interceptorOptions) {
		if key != "" {
			o.metadataKey = key
		}
	}
}

// WithIdentityKey 设置 gRPC 拦截器的调用方身份 metadata 键名
func WithIdentityKey(key string) InterceptorOption {
	return func(o *interceptorOptions) {
		if key != "" {
			o.identityKey = key
		}
	}
}

// WithInterceptorTTL 设置 gRPC 拦截器缓存响应的有效期
func WithInterceptorTTL(ttl time.Duration) InterceptorOption {
	return func(o *interceptorOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}
