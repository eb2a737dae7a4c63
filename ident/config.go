package ident

import (
	"github.com/yunhan/payidem/errx"
	"github.com/yunhan/payidem/zlog"
)

// Config 身份验证配置
type Config struct {
	// SecretKey HMAC 签名密钥（至少 32 字符）
	SecretKey string `json:"secret_key" yaml:"secret_key" mapstructure:"secret_key"`

	// Issuer 期望的签发者，留空则不校验
	Issuer string `json:"issuer" yaml:"issuer" mapstructure:"issuer"`
}

func (c *Config) setDefaults() {}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return ErrConfigNil
	}
	if len(c.SecretKey) < 32 {
		return errx.Wrap(ErrConfigNil, "secret_key must be at least 32 characters")
	}
	return nil
}

// Option 组件初始化选项函数
type Option func(*options)

type options struct {
	logger zlog.Logger
}

// WithLogger 设置 Logger
func WithLogger(logger zlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
