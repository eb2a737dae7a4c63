package ident

import "github.com/yunhan/payidem/errx"

// 错误定义
var (
	// ErrConfigNil 配置为空或非法
	ErrConfigNil = errx.New("ident: invalid config")

	// ErrTokenMissing Token 缺失
	ErrTokenMissing = errx.New("ident: token missing")

	// ErrTokenInvalid Token 非法
	ErrTokenInvalid = errx.New("ident: token invalid")

	// ErrTokenExpired Token 已过期
	ErrTokenExpired = errx.New("ident: token expired")
)
