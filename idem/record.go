package idem

import (
	"context"
	"time"
)

// completionRecord 任务守卫的完成记录，只在业务执行成功后写入。
// 条目写入后不再修改，直到 TTL 过期被存储后端清理。
type completionRecord struct {
	Result      any            `json:"result" msgpack:"result"`
	CompletedAt time.Time      `json:"completed_at" msgpack:"completed_at"`
	Op          string         `json:"op" msgpack:"op"`
	Args        []any          `json:"args,omitempty" msgpack:"args,omitempty"`
	Kwargs      map[string]any `json:"kwargs,omitempty" msgpack:"kwargs,omitempty"`
}

// cachedResponse 请求守卫的缓存响应，只在 2xx 响应后写入
type cachedResponse struct {
	Status      int       `json:"status" msgpack:"status"`
	ContentType string    `json:"content_type" msgpack:"content_type"`
	Body        []byte    `json:"body" msgpack:"body"`
	CachedAt    time.Time `json:"cached_at" msgpack:"cached_at"`
}

// Operation 描述一个受保护的命名操作
type Operation struct {
	// Name 操作名，如 "compute_daily_salary"
	Name string

	// Args 位置参数，参与幂等键派生
	Args []any

	// Kwargs 关键字参数，参与幂等键派生（与顺序无关）
	Kwargs map[string]any

	// Fn 业务逻辑，只在首次调用时执行
	Fn func(ctx context.Context) (any, error)
}

// Outcome 一次幂等执行的结果
type Outcome struct {
	// Result 业务结果；重放时为缓存记录反序列化后的值
	Result any

	// Replayed true 表示命中完成记录，业务逻辑没有执行
	Replayed bool

	// Key 派生出的幂等键
	Key string

	// CompletedAt 业务逻辑（首次）完成的时间
	CompletedAt time.Time
}

// ExecutionStatus 操作执行状态（Status 查询返回）
type ExecutionStatus struct {
	// Executed 是否存在完成记录
	Executed bool `json:"executed"`

	// CompletedAt 完成时间，未执行时为零值
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// Result 缓存的业务结果，未执行时为 nil
	Result any `json:"result,omitempty"`
}
