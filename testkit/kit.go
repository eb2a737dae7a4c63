// Package testkit 提供测试共用的依赖构造函数。
// 只应在 _test.go 文件中引用。
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yunhan/payidem/zlog"
)

// NewLogger 返回一个用于测试的 logger
// 输出为开发环境格式，适合本地调试
func NewLogger() zlog.Logger {
	logger, err := zlog.New(zlog.NewDevDefaultConfig("payidem-test"))
	if err != nil {
		return zlog.Discard()
	}
	return logger
}

// NewContext 返回一个带有超时的测试上下文
func NewContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// NewID 返回一个唯一的测试 ID (UUID v4 前 8 位)
// 用于生成唯一的键或 subject 后缀，避免测试间数据冲突
func NewID() string {
	return uuid.New().String()[0:8]
}
