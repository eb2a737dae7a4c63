package idem

import (
	"fmt"
	"time"

	"github.com/yunhan/payidem/errx"
)

// 错误定义
var (
	// ErrConfigNil 配置为空或非法
	ErrConfigNil = errx.New("idem: config is nil or invalid")

	// ErrUnsupportedDriver 不支持的存储后端类型
	ErrUnsupportedDriver = errx.New("idem: unsupported driver")

	// ErrNameEmpty 操作名为空
	ErrNameEmpty = errx.New("idem: operation name is empty")

	// ErrFnNil 业务函数为空
	ErrFnNil = errx.New("idem: operation fn is nil")

	// ErrKeyEmpty 幂等键为空
	ErrKeyEmpty = errx.New("idem: key is empty")

	// ErrNotFound 存储中没有对应条目（存储实现返回，守卫内部处理）
	ErrNotFound = errx.New("idem: entry not found")
)

// DuplicateError 表示在 DuplicateRaise 策略下检测到重复调用。
// 携带操作名与幂等键用于诊断。
type DuplicateError struct {
	Op          string
	Key         string
	CompletedAt time.Time
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("idem: duplicate execution of %q (key %s, completed at %s)",
		e.Op, e.Key, e.CompletedAt.Format(time.RFC3339))
}

// IsDuplicate 判断错误是否为重复调用
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errx.As(err, &dup)
}
