// Package conf 提供统一的配置加载能力，基于 Viper 实现。
//
// 特性：
//   - 多源配置：YAML 文件、.env 文件、环境变量
//   - 配置优先级：环境变量 > .env > 配置文件
//   - 热更新：监听配置文件变化并回调通知
//
// 基本使用：
//
//	loader, _ := conf.Load(
//	    conf.WithName("payroll"),
//	    conf.WithPaths(".", "./config"),
//	    conf.WithEnvPrefix("PAYIDEM"),
//	)
//
//	var cfg AppConfig
//	if err := loader.Unmarshal(&cfg); err != nil {
//	    panic(err)
//	}
package conf

import "github.com/yunhan/payidem/errx"

// Loader 定义配置加载器的核心行为
type Loader interface {
	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 Key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// OnChange 注册配置文件变更回调并开始监听
	OnChange(fn func())
}

// Load 创建配置加载器并完成首次加载
func Load(opts ...Option) (Loader, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	o.setDefaults()

	l := newLoader(o)
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// MustLoad 同 Load，失败时 panic。仅用于初始化阶段。
func MustLoad(opts ...Option) Loader {
	return errx.Must(Load(opts...))
}
