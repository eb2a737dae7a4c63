package zlog

import "fmt"

// Config 日志配置
type Config struct {
	// Level 日志级别: "debug" | "info" | "warn" | "error"，默认 "info"
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format 输出格式: "json" | "console"，默认 "json"
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output 输出目标: "stdout" | "stderr"，默认 "stdout"
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// Service 服务名，会作为 service 字段出现在每条日志中
	Service string `json:"service" yaml:"service" mapstructure:"service"`

	// AddSource 是否输出调用位置
	AddSource bool `json:"add_source" yaml:"add_source" mapstructure:"add_source"`
}

// NewDevDefaultConfig 返回适合开发环境的默认配置（console 格式，debug 级别）
func NewDevDefaultConfig(service string) *Config {
	return &Config{
		Level:   "debug",
		Format:  "console",
		Output:  "stdout",
		Service: service,
	}
}

// NewProdDefaultConfig 返回适合生产环境的默认配置（json 格式，info 级别）
func NewProdDefaultConfig(service string) *Config {
	return &Config{
		Level:   "info",
		Format:  "json",
		Output:  "stdout",
		Service: service,
	}
}

func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

func (c *Config) validate() error {
	c.setDefaults()

	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Level)
	}

	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format: %q", c.Format)
	}

	switch c.Output {
	case "stdout", "stderr":
	default:
		return fmt.Errorf("unknown log output: %q", c.Output)
	}

	return nil
}
