package idem

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/yunhan/payidem/errx"
	"github.com/yunhan/payidem/zlog"
)

// breakerStore 为存储后端加熔断保护的装饰器。
//
// 守卫对存储故障本来就按 fail-open 处理（读失败视为未命中，写失败
// 只记日志），熔断器的价值在于后端持续故障时快速失败，避免每次
// 调用都等一个完整的连接超时。熔断打开期间的错误同样走 fail-open
// 路径，不会暴露给业务调用方。
type breakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[[]byte]
}

func newBreakerStore(inner Store, logger zlog.Logger) Store {
	settings := gobreaker.Settings{
		Name:    "idem-store",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// 未命中是正常结果，不能计入故障
			return err == nil || errx.Is(err, ErrNotFound)
		},
	}
	if logger != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn("idem store breaker state changed",
				zlog.String("from", from.String()),
				zlog.String("to", to.String()))
		}
	}

	return &breakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (bs *breakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	return bs.cb.Execute(func() ([]byte, error) {
		return bs.inner.Get(ctx, key)
	})
}

func (bs *breakerStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_, err := bs.cb.Execute(func() ([]byte, error) {
		return nil, bs.inner.Set(ctx, key, val, ttl)
	})
	return err
}

func (bs *breakerStore) Delete(ctx context.Context, key string) (bool, error) {
	var removed bool
	_, err := bs.cb.Execute(func() ([]byte, error) {
		var err error
		removed, err = bs.inner.Delete(ctx, key)
		return nil, err
	})
	return removed, err
}
