package idem

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhan/payidem/errx"
	"github.com/yunhan/payidem/zlog"
)

func newTestGuard(t *testing.T, opts ...Option) Guard {
	t.Helper()
	opts = append([]Option{WithLogger(zlog.Discard())}, opts...)
	g, err := New(&Config{Driver: DriverMemory}, opts...)
	require.NoError(t, err)
	return g
}

// faultStore 故障注入用的假存储
type faultStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet error
	failSet error
}

func newFaultStore() *faultStore {
	return &faultStore{data: make(map[string][]byte)}
}

func (s *faultStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *faultStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.data[key] = value
	return nil
}

func (s *faultStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	delete(s.data, key)
	return ok, nil
}

func TestGuardDo(t *testing.T) {
	g := newTestGuard(t)
	ctx := t.Context()

	t.Run("重复调用跳过执行", func(t *testing.T) {
		var calls int
		op := Operation{
			Name: "send_alert",
			Args: []any{"CRITICAL", "disk full"},
			Fn: func(ctx context.Context) (any, error) {
				calls++
				return map[string]any{"sent": true}, nil
			},
		}

		first, err := g.Do(ctx, op)
		require.NoError(t, err)
		assert.False(t, first.Replayed)

		second, err := g.Do(ctx, op)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Key, second.Key)

		assert.Equal(t, 1, calls, "业务逻辑应只执行一次")

		// 缓存结果经过 JSON 往返
		res, ok := second.Result.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, res["sent"])
	})

	t.Run("不同参数各自执行", func(t *testing.T) {
		var calls int
		fn := func(ctx context.Context) (any, error) {
			calls++
			return calls, nil
		}

		_, err := g.Do(ctx, Operation{Name: "notify", Args: []any{"emp-1"}, Fn: fn})
		require.NoError(t, err)
		_, err = g.Do(ctx, Operation{Name: "notify", Args: []any{"emp-2"}, Fn: fn})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("raise 策略返回 DuplicateError", func(t *testing.T) {
		op := Operation{
			Name: "create_payment",
			Args: []any{"order-42"},
			Fn: func(ctx context.Context) (any, error) {
				return "paid", nil
			},
		}

		_, err := g.Do(ctx, op, WithRaiseOnDuplicate())
		require.NoError(t, err)

		_, err = g.Do(ctx, op, WithRaiseOnDuplicate())
		require.Error(t, err)
		assert.True(t, IsDuplicate(err))

		var dup *DuplicateError
		require.True(t, errx.As(err, &dup))
		assert.Equal(t, "create_payment", dup.Op)
		assert.False(t, dup.CompletedAt.IsZero())
	})

	t.Run("失败不写记录", func(t *testing.T) {
		var calls int
		boom := errx.New("downstream unavailable")
		op := Operation{
			Name: "flaky",
			Fn: func(ctx context.Context) (any, error) {
				calls++
				if calls == 1 {
					return nil, boom
				}
				return "ok", nil
			},
		}

		_, err := g.Do(ctx, op)
		require.ErrorIs(t, err, boom)

		// 重试等同于首次执行
		out, err := g.Do(ctx, op)
		require.NoError(t, err)
		assert.False(t, out.Replayed)
		assert.Equal(t, "ok", out.Result)
		assert.Equal(t, 2, calls)
	})

	t.Run("参数校验", func(t *testing.T) {
		_, err := g.Do(ctx, Operation{Fn: func(ctx context.Context) (any, error) { return nil, nil }})
		assert.ErrorIs(t, err, ErrNameEmpty)

		_, err = g.Do(ctx, Operation{Name: "no-fn"})
		assert.ErrorIs(t, err, ErrFnNil)
	})
}

func TestGuardDoDaily(t *testing.T) {
	g := newTestGuard(t)
	ctx := t.Context()

	var calls int
	op := Operation{
		Name:   "close_payroll_day",
		Kwargs: map[string]any{"tenant": "acme"},
		Fn: func(ctx context.Context) (any, error) {
			calls++
			return calls, nil
		},
	}

	out, err := g.DoDaily(ctx, op)
	require.NoError(t, err)
	assert.False(t, out.Replayed)
	assert.Contains(t, out.Key, time.Now().UTC().Format("2006-01-02"))

	out, err = g.DoDaily(ctx, op)
	require.NoError(t, err)
	assert.True(t, out.Replayed)
	assert.Equal(t, 1, calls)

	// 模拟跨日：清掉当日记录后应重新执行
	cleared, err := g.Clear(ctx, op.Name, op.Args, op.Kwargs, WithDateBucket())
	require.NoError(t, err)
	assert.True(t, cleared)

	out, err = g.DoDaily(ctx, op)
	require.NoError(t, err)
	assert.False(t, out.Replayed)
	assert.Equal(t, 2, calls)
}

func TestGuardConsume(t *testing.T) {
	g := newTestGuard(t)
	ctx := t.Context()

	var calls int
	handler := func(ctx context.Context) error {
		calls++
		return nil
	}

	executed, err := g.Consume(ctx, "checkin:msg-1", time.Hour, handler)
	require.NoError(t, err)
	assert.True(t, executed)

	executed, err = g.Consume(ctx, "checkin:msg-1", time.Hour, handler)
	require.NoError(t, err)
	assert.False(t, executed, "重复投递不应再次处理")
	assert.Equal(t, 1, calls)

	// 处理失败不写标记，重投会再次处理
	boom := errx.New("handler failed")
	_, err = g.Consume(ctx, "checkin:msg-2", time.Hour, func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	executed, err = g.Consume(ctx, "checkin:msg-2", time.Hour, handler)
	require.NoError(t, err)
	assert.True(t, executed)

	_, err = g.Consume(ctx, "", time.Hour, handler)
	assert.ErrorIs(t, err, ErrKeyEmpty)
}

func TestGuardStatusAndClear(t *testing.T) {
	g := newTestGuard(t)
	ctx := t.Context()

	name := "compute_daily_salary"
	args := []any{"emp-7"}

	st, err := g.Status(ctx, name, args, nil)
	require.NoError(t, err)
	assert.False(t, st.Executed)

	_, err = g.Do(ctx, Operation{Name: name, Args: args, Fn: func(ctx context.Context) (any, error) {
		return 1234.5, nil
	}})
	require.NoError(t, err)

	st, err = g.Status(ctx, name, args, nil)
	require.NoError(t, err)
	assert.True(t, st.Executed)
	assert.False(t, st.CompletedAt.IsZero())
	assert.Equal(t, 1234.5, st.Result)

	cleared, err := g.Clear(ctx, name, args, nil)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = g.Clear(ctx, name, args, nil)
	require.NoError(t, err)
	assert.False(t, cleared, "记录已不存在")

	st, err = g.Status(ctx, name, args, nil)
	require.NoError(t, err)
	assert.False(t, st.Executed)
}

func TestGuardStoreFailures(t *testing.T) {
	ctx := t.Context()

	t.Run("读故障按未命中处理", func(t *testing.T) {
		fs := newFaultStore()
		g := newTestGuard(t, WithStore(fs))

		var calls int
		op := Operation{Name: "pay_once", Fn: func(ctx context.Context) (any, error) {
			calls++
			return "done", nil
		}}

		_, err := g.Do(ctx, op)
		require.NoError(t, err)

		fs.mu.Lock()
		fs.failGet = errx.New("redis: connection refused")
		fs.mu.Unlock()

		out, err := g.Do(ctx, op)
		require.NoError(t, err, "存储读故障不应阻塞业务")
		assert.False(t, out.Replayed)
		assert.Equal(t, 2, calls)
	})

	t.Run("写故障仍返回业务结果", func(t *testing.T) {
		fs := newFaultStore()
		fs.failSet = errx.New("redis: readonly replica")
		g := newTestGuard(t, WithStore(fs))

		out, err := g.Do(ctx, Operation{Name: "pay_once", Fn: func(ctx context.Context) (any, error) {
			return "done", nil
		}})
		require.NoError(t, err)
		assert.Equal(t, "done", out.Result)
		assert.False(t, out.Replayed)
	})

	t.Run("Status 如实上报存储故障", func(t *testing.T) {
		fs := newFaultStore()
		fs.failGet = errx.New("redis: connection refused")
		g := newTestGuard(t, WithStore(fs))

		_, err := g.Status(ctx, "pay_once", nil, nil)
		require.Error(t, err)
	})
}

func TestGuardTTLOverride(t *testing.T) {
	fs := newFaultStore()
	g := newTestGuard(t, WithStore(fs))
	ctx := t.Context()

	_, err := g.Do(ctx, Operation{Name: "short_lived", Fn: func(ctx context.Context) (any, error) {
		return "x", nil
	}}, WithTTL(time.Minute))
	require.NoError(t, err)

	// 损坏的记录按未命中处理
	key := DeriveKey(taskNamespace, "short_lived", nil, nil, false)
	fs.mu.Lock()
	fs.data[key] = []byte("{not json")
	fs.mu.Unlock()

	out, err := g.Do(ctx, Operation{Name: "short_lived", Fn: func(ctx context.Context) (any, error) {
		return "y", nil
	}})
	require.NoError(t, err)
	assert.False(t, out.Replayed)
	assert.Equal(t, "y", out.Result)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrConfigNil)

	_, err = New(&Config{Driver: DriverRedis})
	assert.Error(t, err, "redis 驱动必须注入客户端")

	_, err = New(&Config{Driver: "cassandra"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	_, err = New(&Config{Driver: DriverMemory, Codec: "protobuf"})
	assert.Error(t, err)
}
