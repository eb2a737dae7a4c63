// Package idem 是薪酬/考勤后端的幂等执行核心，保证在重试与重复投递下
// "副作用至多生效一次"。
//
// 它提供两套相互独立的守卫，共享同一个存储契约：
//   - 任务守卫（Do / DoDaily / Consume）：保护后台任务与消息消费，
//     以（操作名, 参数）派生幂等键，缓存完成记录
//   - 请求守卫（GinMiddleware / UnaryServerInterceptor）：保护 POST 类
//     API 调用，以客户端提供的幂等令牌（按调用方与路由隔离）缓存响应
//
// 设计要点：
//   - 存储只有 UNSEEN -> COMPLETED 两个持久状态，没有持久化的执行中
//     标记，也不做分布式锁；两个并发的首次调用可能都执行一次，这是
//     已知且接受的竞争窗口（存储后端的最终一致性同理）
//   - 读存储失败按未命中处理（fail-open），写存储失败只记日志，
//     成功的业务结果照常返回给调用方
//   - 业务执行失败时不写任何记录，下一次重试等同于首次执行
//
// 基本使用：
//
//	guard, _ := idem.New(&idem.Config{
//	    Driver: idem.DriverRedis,
//	    Prefix: "payroll:",
//	}, idem.WithRedisClient(rdb), idem.WithLogger(logger))
//
//	outcome, err := guard.Do(ctx, idem.Operation{
//	    Name: "send_alert",
//	    Args: []any{"CRITICAL", "disk full"},
//	    Fn: func(ctx context.Context) (any, error) {
//	        return map[string]any{"sent": true}, nil
//	    },
//	})
//
// Gin 中间件：
//
//	r.Use(guard.GinMiddleware(&idem.MiddlewareConfig{
//	    Routes: []string{"/api/v1/worklogs/checkin"},
//	}).(func(*gin.Context)))
package idem

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/yunhan/payidem/codec"
	"github.com/yunhan/payidem/errx"
	"github.com/yunhan/payidem/zlog"
)

// Guard 幂等守卫核心接口
type Guard interface {
	// Do 幂等地执行一个命名操作
	//
	// 工作流程：
	//  1. 由（操作名, args, kwargs）派生幂等键
	//  2. 已有完成记录 → 跳过执行直接返回缓存结果
	//     （WithRaiseOnDuplicate 时改为返回 *DuplicateError）
	//  3. 没有记录 → 执行 Fn；成功则写入完成记录，失败则原样返回
	//     错误且不写任何记录
	Do(ctx context.Context, op Operation, opts ...ExecOption) (*Outcome, error)

	// DoDaily 同 Do，但幂等键按 UTC 日期分桶：同一操作每个自然日
	// 允许重新执行一次。适合"每天至多跑一次"的结算类任务。
	DoDaily(ctx context.Context, op Operation, opts ...ExecOption) (*Outcome, error)

	// Consume 用于消息消费的幂等处理
	//
	// 与 Do 不同，Consume 不缓存结果，只记录"已处理"标记。
	// 返回 executed 表示本次是否真正执行了 fn。
	Consume(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (executed bool, err error)

	// Status 查询某个操作是否已经执行过（运维/测试用途）
	Status(ctx context.Context, name string, args []any, kwargs map[string]any, opts ...ExecOption) (*ExecutionStatus, error)

	// Clear 删除某个操作的完成记录，使下一次调用重新执行
	// （运维/测试用途，如模拟 TTL 过期）
	Clear(ctx context.Context, name string, args []any, kwargs map[string]any, opts ...ExecOption) (bool, error)

	// GinMiddleware 创建 Gin 请求幂等中间件
	//
	// 只对配置的 POST 路由生效，按客户端提供的 X-Idempotency-Key
	// 去重，缓存键按调用方身份与路由隔离。
	//
	// 返回类型为 any 是为了避免被非 HTTP 使用方强依赖 gin 包，
	// 实际返回 func(*gin.Context)，可直接传给 gin 路由。
	GinMiddleware(cfg *MiddlewareConfig, opts ...MiddlewareOption) any

	// UnaryServerInterceptor 创建 gRPC 一元服务端拦截器
	//
	// 从 metadata 的 x-idempotency-key 提取令牌，缓存 protobuf
	// 响应。只支持一元调用。
	UnaryServerInterceptor(opts ...InterceptorOption) grpc.UnaryServerInterceptor
}

// New 创建幂等守卫实例
//
// 参数：
//   - cfg: 配置，不可为 nil
//   - opts: 可选依赖，如 WithLogger()、WithRedisClient()
func New(cfg *Config, opts ...Option) (Guard, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	logger := opt.logger
	if logger != nil {
		logger = logger.With(zlog.String("component", "idem"))
	}

	cdc, err := codec.New(cfg.Codec)
	if err != nil {
		return nil, errx.Wrapf(err, "idem: codec %q", cfg.Codec)
	}

	var store Store
	switch cfg.Driver {
	case DriverRedis:
		if opt.redisClient == nil {
			return nil, errx.New("idem: redis client is required, use WithRedisClient")
		}
		store = newRedisStore(opt.redisClient, cfg.Prefix)
		if !cfg.DisableBreaker {
			store = newBreakerStore(store, logger)
		}
	case DriverMemory:
		store, err = newMemoryStore(cfg.Prefix, cfg.MemoryCapacity)
		if err != nil {
			return nil, err
		}
	}
	if opt.store != nil {
		store = opt.store
	}

	if logger != nil {
		logger.Info("creating idem guard",
			zlog.String("driver", string(cfg.Driver)),
			zlog.String("prefix", cfg.Prefix),
			zlog.String("codec", cdc.Name()),
			zlog.Duration("default_ttl", cfg.DefaultTTL),
			zlog.Duration("daily_ttl", cfg.DailyTTL))
	}

	return &guard{
		cfg:     cfg,
		store:   store,
		codec:   cdc,
		logger:  logger,
		metrics: newGuardMetrics(opt.registerer),
	}, nil
}
