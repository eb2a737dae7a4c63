// Package errx 提供 payidem 各组件共用的错误处理工具。
package errx

import (
	"errors"
	"fmt"
)

// Wrap 用上下文信息包装错误，保留错误链。
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 用格式化的上下文信息包装错误。
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WithCode 用错误码包装错误。
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{ErrCode: code, Cause: err}
}

// CodedError 带有机器可读错误码的错误。
type CodedError struct {
	ErrCode string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.ErrCode, e.Cause)
	}
	return fmt.Sprintf("[%s]", e.ErrCode)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// Code 从错误链中提取错误码，没有则返回空字符串。
func Code(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.ErrCode
	}
	return ""
}

// Must 如果 err 不为 nil，则 panic。仅用于初始化阶段。
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// 标准库函数再导出，使用方不必同时导入 errors 包
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
