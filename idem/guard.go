package idem

import (
	"context"
	"time"

	"github.com/yunhan/payidem/codec"
	"github.com/yunhan/payidem/errx"
	"github.com/yunhan/payidem/zlog"
)

// guard 幂等守卫实现（非导出）
type guard struct {
	cfg     *Config
	store   Store
	codec   codec.Codec
	logger  zlog.Logger
	metrics *guardMetrics
}

// processedMarker Consume 写入的"已处理"标记
const processedMarker = "1"

// Do 幂等地执行一个命名操作
func (g *guard) Do(ctx context.Context, op Operation, opts ...ExecOption) (*Outcome, error) {
	return g.do(ctx, op, false, opts)
}

// DoDaily 同 Do，幂等键按 UTC 日期分桶
func (g *guard) DoDaily(ctx context.Context, op Operation, opts ...ExecOption) (*Outcome, error) {
	return g.do(ctx, op, true, opts)
}

func (g *guard) do(ctx context.Context, op Operation, daily bool, opts []ExecOption) (*Outcome, error) {
	if op.Name == "" {
		return nil, ErrNameEmpty
	}
	if op.Fn == nil {
		return nil, ErrFnNil
	}

	eo := g.execOptions(daily, opts)
	key := DeriveKey(taskNamespace, op.Name, op.Args, op.Kwargs, eo.dateBucketed)

	// 查完成记录；存储故障按未命中处理（fail-open），
	// 宁可冒一次重复执行的风险也不能阻塞业务
	if rec, ok := g.lookup(ctx, key, op.Name); ok {
		if eo.policy == DuplicateRaise {
			g.metrics.observeExecution(op.Name, resultDuplicate, 0)
			if g.logger != nil {
				g.logger.Debug("duplicate execution rejected",
					zlog.String("op", op.Name), zlog.String("key", key))
			}
			return nil, &DuplicateError{Op: op.Name, Key: key, CompletedAt: rec.CompletedAt}
		}

		g.metrics.observeExecution(op.Name, resultReplayed, 0)
		if g.logger != nil {
			g.logger.Debug("completion record hit, skipping execution",
				zlog.String("op", op.Name), zlog.String("key", key))
		}
		return &Outcome{
			Result:      rec.Result,
			Replayed:    true,
			Key:         key,
			CompletedAt: rec.CompletedAt,
		}, nil
	}

	// 首次执行。业务失败时原样返回错误且不写任何记录，
	// 下一次重试等同于首次调用。
	start := time.Now()
	result, err := op.Fn(ctx)
	if err != nil {
		g.metrics.observeExecution(op.Name, resultFailed, 0)
		return nil, err
	}

	completedAt := time.Now().UTC()
	g.metrics.observeExecution(op.Name, resultExecuted, time.Since(start))

	rec := completionRecord{
		Result:      result,
		CompletedAt: completedAt,
		Op:          op.Name,
		Args:        op.Args,
		Kwargs:      op.Kwargs,
	}
	g.persist(ctx, key, op.Name, &rec, eo.ttl)

	return &Outcome{Result: result, Key: key, CompletedAt: completedAt}, nil
}

// Consume 用于消息消费的幂等处理
func (g *guard) Consume(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	if key == "" {
		return false, ErrKeyEmpty
	}
	if ttl <= 0 {
		ttl = g.cfg.DefaultTTL
	}

	storeKey := consumeNamespace + ":" + key

	_, err := g.store.Get(ctx, storeKey)
	if err == nil {
		if g.logger != nil {
			g.logger.Debug("message already consumed", zlog.String("key", key))
		}
		return false, nil
	}
	if !errx.Is(err, ErrNotFound) {
		g.metrics.observeStoreError("get")
		if g.logger != nil {
			g.logger.Error("consume marker lookup failed, treating as first delivery",
				zlog.Error(err), zlog.String("key", key))
		}
	}

	if err := fn(ctx); err != nil {
		return false, err
	}

	if err := g.store.Set(ctx, storeKey, []byte(processedMarker), ttl); err != nil {
		g.metrics.observeStoreError("set")
		if g.logger != nil {
			g.logger.Error("failed to write consume marker",
				zlog.Error(err), zlog.String("key", key))
		}
	}
	return true, nil
}

// Status 查询某个操作是否已经执行过
func (g *guard) Status(ctx context.Context, name string, args []any, kwargs map[string]any, opts ...ExecOption) (*ExecutionStatus, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}

	eo := g.execOptions(false, opts)
	key := DeriveKey(taskNamespace, name, args, kwargs, eo.dateBucketed)

	data, err := g.store.Get(ctx, key)
	if errx.Is(err, ErrNotFound) {
		return &ExecutionStatus{Executed: false}, nil
	}
	if err != nil {
		// 运维查询接口如实上报存储故障，不做 fail-open
		return nil, err
	}

	var rec completionRecord
	if err := g.codec.Unmarshal(data, &rec); err != nil {
		return nil, errx.Wrap(err, "idem: decode completion record")
	}

	return &ExecutionStatus{
		Executed:    true,
		CompletedAt: rec.CompletedAt,
		Result:      rec.Result,
	}, nil
}

// Clear 删除某个操作的完成记录
func (g *guard) Clear(ctx context.Context, name string, args []any, kwargs map[string]any, opts ...ExecOption) (bool, error) {
	if name == "" {
		return false, ErrNameEmpty
	}

	eo := g.execOptions(false, opts)
	key := DeriveKey(taskNamespace, name, args, kwargs, eo.dateBucketed)
	return g.store.Delete(ctx, key)
}

// execOptions 合并执行选项与配置默认值
func (g *guard) execOptions(daily bool, opts []ExecOption) execOptions {
	eo := execOptions{policy: DuplicateSkip, dateBucketed: daily}
	if daily {
		eo.ttl = g.cfg.DailyTTL
	} else {
		eo.ttl = g.cfg.DefaultTTL
	}
	for _, o := range opts {
		o(&eo)
	}
	return eo
}

// WithDateBucket 使 Status/Clear 按日期分桶派生键，
// 与 DoDaily 写入的记录对应
func WithDateBucket() ExecOption {
	return func(o *execOptions) {
		o.dateBucketed = true
	}
}

// lookup 读取并解码完成记录；未命中、存储故障、记录损坏都返回 false
func (g *guard) lookup(ctx context.Context, key, op string) (*completionRecord, bool) {
	data, err := g.store.Get(ctx, key)
	if err != nil {
		if !errx.Is(err, ErrNotFound) {
			g.metrics.observeStoreError("get")
			if g.logger != nil {
				g.logger.Error("completion record lookup failed, treating as miss",
					zlog.Error(err), zlog.String("op", op), zlog.String("key", key))
			}
		}
		return nil, false
	}

	var rec completionRecord
	if err := g.codec.Unmarshal(data, &rec); err != nil {
		if g.logger != nil {
			g.logger.Error("corrupt completion record, treating as miss",
				zlog.Error(err), zlog.String("op", op), zlog.String("key", key))
		}
		return nil, false
	}
	return &rec, true
}

// persist 写入完成记录。业务已经成功，这里的任何失败都只记日志，
// 绝不能把存储故障变成调用方看到的错误。
func (g *guard) persist(ctx context.Context, key, op string, rec *completionRecord, ttl time.Duration) {
	data, err := g.codec.Marshal(rec)
	if err != nil {
		if g.logger != nil {
			g.logger.Error("failed to encode completion record",
				zlog.Error(err), zlog.String("op", op), zlog.String("key", key))
		}
		return
	}

	if err := g.store.Set(ctx, key, data, ttl); err != nil {
		g.metrics.observeStoreError("set")
		if g.logger != nil {
			g.logger.Error("failed to persist completion record, a future duplicate is possible",
				zlog.Error(err), zlog.String("op", op), zlog.String("key", key))
		}
	}
}
