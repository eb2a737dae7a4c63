// Package zlog 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 零外部依赖（仅依赖 Go 标准库）
//   - 支持 json / console 两种输出格式
//   - 支持运行时动态调整日志级别
//
// 基本使用：
//
//	logger, _ := zlog.New(&zlog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("payroll job finished", zlog.String("op", "close_day"))
package zlog

import "fmt"

// New 创建一个新的 Logger 实例
//
// config - 日志配置，如果为 nil 会使用默认配置
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = NewDevDefaultConfig("payidem")
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// 应用选项
	options := applyOptions(opts...)

	return newLogger(config, options)
}
