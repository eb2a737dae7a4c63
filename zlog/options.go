package zlog

import "io"

// Option 组件初始化选项函数
type Option func(*options)

// options 内部选项配置
type options struct {
	writer io.Writer
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithWriter 覆盖输出目标，主要用于测试
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}
