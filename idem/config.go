package idem

import (
	"time"

	"github.com/yunhan/payidem/errx"
)

// DriverType 存储后端类型
type DriverType string

const (
	// DriverRedis 使用 Redis 作为后端
	DriverRedis DriverType = "redis"
	// DriverMemory 使用进程内存作为后端（仅单机，主要用于测试）
	DriverMemory DriverType = "memory"
)

// DuplicatePolicy 重复调用时的处理策略
type DuplicatePolicy string

const (
	// DuplicateSkip 跳过执行，直接返回缓存结果（默认）
	DuplicateSkip DuplicatePolicy = "skip"
	// DuplicateRaise 返回 *DuplicateError
	DuplicateRaise DuplicatePolicy = "raise"
)

const (
	// taskNamespace 任务守卫的键命名空间
	taskNamespace = "idempotent"

	// requestNamespace 请求守卫的键命名空间，与任务守卫互不重叠
	requestNamespace = "idempotency"

	// consumeNamespace 消息消费标记的键命名空间
	consumeNamespace = "consume"
)

// Config 幂等守卫配置
type Config struct {
	// Driver 后端类型: "redis" | "memory"（默认 "redis"）
	Driver DriverType `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Prefix 存储键前缀，默认 "payidem:"
	// 例如 "payroll:" 会以 "payroll:idempotent:{name}:{hash}" 存储
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// DefaultTTL 一次性操作完成记录的有效期，默认 24h
	// 过期由存储后端负责清理，过期后相同调用会重新执行
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`

	// DailyTTL 按日分桶操作完成记录的有效期，默认 48h
	// 此值只需覆盖跨日边界，键中的日期保证每天最多执行一次
	DailyTTL time.Duration `json:"daily_ttl" yaml:"daily_ttl" mapstructure:"daily_ttl"`

	// Codec 完成记录序列化方式: "json" | "msgpack"（默认 "json"）
	Codec string `json:"codec" yaml:"codec" mapstructure:"codec"`

	// MemoryCapacity memory 驱动的最大条目数，默认 10000
	MemoryCapacity int `json:"memory_capacity" yaml:"memory_capacity" mapstructure:"memory_capacity"`

	// DisableBreaker 关闭 redis 驱动默认的熔断保护
	DisableBreaker bool `json:"disable_breaker" yaml:"disable_breaker" mapstructure:"disable_breaker"`
}

func (c *Config) setDefaults() {
	if c == nil {
		return
	}
	if c.Driver == "" {
		c.Driver = DriverRedis
	}
	if c.Prefix == "" {
		c.Prefix = "payidem:"
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 24 * time.Hour
	}
	if c.DailyTTL <= 0 {
		c.DailyTTL = 48 * time.Hour
	}
	if c.MemoryCapacity <= 0 {
		c.MemoryCapacity = 10000
	}
}

func (c *Config) validate() error {
	if c == nil {
		return ErrConfigNil
	}
	switch c.Driver {
	case DriverRedis, DriverMemory:
		return nil
	default:
		return errx.Wrapf(ErrUnsupportedDriver, "%q", c.Driver)
	}
}

// MiddlewareConfig Gin 请求幂等中间件配置
type MiddlewareConfig struct {
	// Routes 受保护的路由模板白名单（gin FullPath 形式，
	// 如 "/api/v1/worklogs/checkin"）。只有白名单内的 POST 会去重。
	Routes []string `json:"routes" yaml:"routes" mapstructure:"routes"`

	// TTL 缓存响应的有效期，默认 24h
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// MaxKeyLength 客户端令牌的最大长度，默认 255，超长直接拒绝
	MaxKeyLength int `json:"max_key_length" yaml:"max_key_length" mapstructure:"max_key_length"`

	// Header 携带幂等令牌的请求头，默认 "X-Idempotency-Key"
	Header string `json:"header" yaml:"header" mapstructure:"header"`
}

func (c *MiddlewareConfig) setDefaults() {
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	if c.MaxKeyLength <= 0 {
		c.MaxKeyLength = 255
	}
	if c.Header == "" {
		c.Header = HeaderIdempotencyKey
	}
}

// HTTP 头常量
const (
	// HeaderIdempotencyKey 客户端幂等令牌请求头
	HeaderIdempotencyKey = "X-Idempotency-Key"

	// HeaderCacheStatus 响应头，"hit" 表示响应来自缓存，"miss" 表示新执行
	HeaderCacheStatus = "X-Idempotency-Cache"

	// HeaderExpiresIn 响应头，新缓存响应的 TTL 秒数
	HeaderExpiresIn = "X-Idempotency-Expires-In"
)

// CodeInvalidToken 令牌非法时 400 响应体中的错误码
const CodeInvalidToken = "INVALID_IDEMPOTENCY_KEY"
