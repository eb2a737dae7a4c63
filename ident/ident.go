// Package ident 提供请求方身份解析能力。
//
// 幂等中间件的响应缓存键必须按调用方隔离（见 idem 包），
// ident 负责从请求中解析出稳定的员工身份：
//   - 验证 Authorization 头中的 JWT
//   - 将 Claims 写入 Gin Context
//   - EmployeeID() 读取当前请求的员工 ID，未登录返回空串
//
// 基本使用：
//
//	verifier, _ := ident.New(&ident.Config{SecretKey: "..."})
//	r.Use(verifier.GinMiddleware())
package ident

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yunhan/payidem/errx"
	"github.com/yunhan/payidem/zlog"
)

// Verifier 身份验证器接口
type Verifier interface {
	// ValidateToken 验证 Token，返回 Claims
	ValidateToken(ctx context.Context, token string) (*Claims, error)

	// GinMiddleware 返回 Gin 身份解析中间件
	//
	// 与认证网关不同，身份解析是尽力而为的：Token 缺失或非法时
	// 请求仍然放行，只是身份保持匿名。拒绝未登录请求是业务
	// handler 的职责，不是幂等层的职责。
	GinMiddleware() any
}

// New 创建 Verifier
func New(cfg *Config, opts ...Option) (Verifier, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &options{logger: zlog.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	return &jwtVerifier{cfg: cfg, logger: o.logger.With(zlog.String("component", "ident"))}, nil
}

// jwtVerifier JWT 身份验证实现
type jwtVerifier struct {
	cfg    *Config
	logger zlog.Logger
}

// ValidateToken 验证 Token，返回 Claims
func (v *jwtVerifier) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	var parserOpts []jwt.ParserOption
	if v.cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errx.Wrapf(ErrTokenInvalid, "unexpected signing method %v", t.Header["alg"])
		}
		return []byte(v.cfg.SecretKey), nil
	}, parserOpts...)
	if err != nil {
		if errx.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errx.Wrap(ErrTokenInvalid, err.Error())
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// extractBearer 从 Authorization 头提取 Bearer Token
func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
