package conf

// Option 配置选项模式
type Option func(*Options)

// Options 加载器配置
type Options struct {
	Name      string   // 配置文件名称（不含扩展名）
	Paths     []string // 配置文件搜索路径
	FileType  string   // 配置文件类型 (yaml, json, ...)
	EnvPrefix string   // 环境变量前缀
	DotEnv    bool     // 是否加载 .env 文件
}

func (o *Options) setDefaults() {
	if o.Name == "" {
		o.Name = "config"
	}
	if o.Paths == nil {
		o.Paths = []string{".", "./config"}
	}
	if o.FileType == "" {
		o.FileType = "yaml"
	}
	if o.EnvPrefix == "" {
		o.EnvPrefix = "PAYIDEM"
	}
}

// WithName 设置配置文件名称（不带扩展名）
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithPaths 设置配置文件搜索路径（覆盖默认值）
func WithPaths(paths ...string) Option {
	return func(o *Options) {
		o.Paths = paths
	}
}

// WithFileType 设置配置文件类型 (yaml, json, ...)
func WithFileType(typ string) Option {
	return func(o *Options) {
		o.FileType = typ
	}
}

// WithEnvPrefix 设置环境变量前缀
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) {
		o.EnvPrefix = prefix
	}
}

// WithDotEnv 启用 .env 文件加载
func WithDotEnv() Option {
	return func(o *Options) {
		o.DotEnv = true
	}
}
