package conf

import (
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yunhan/payidem/errx"
)

// loader 实现 Loader 接口
type loader struct {
	v    *viper.Viper
	opts *Options

	mu        sync.Mutex
	watching  bool
	callbacks []func()
}

func newLoader(opts *Options) *loader {
	return &loader{
		v:    viper.New(),
		opts: opts,
	}
}

// load 初始化并从所有来源加载配置
func (l *loader) load() error {
	l.v.SetConfigName(l.opts.Name)
	l.v.SetConfigType(l.opts.FileType)
	for _, path := range l.opts.Paths {
		l.v.AddConfigPath(path)
	}

	// 环境变量（最高优先级）先设置，确保能覆盖所有来源
	l.v.SetEnvPrefix(l.opts.EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// .env 文件（高优先级），只注入尚未设置的环境变量
	if l.opts.DotEnv {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return errx.Wrap(err, "conf: load .env")
		}
	}

	// 配置文件（最低优先级），缺失时不视为错误
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errx.Wrapf(err, "conf: read config file %q", l.opts.Name)
		}
	}

	return nil
}

func (l *loader) Get(key string) any {
	return l.v.Get(key)
}

func (l *loader) Unmarshal(v any) error {
	if err := l.v.Unmarshal(v); err != nil {
		return errx.Wrap(err, "conf: unmarshal")
	}
	return nil
}

func (l *loader) UnmarshalKey(key string, v any) error {
	if err := l.v.UnmarshalKey(key, v); err != nil {
		return errx.Wrapf(err, "conf: unmarshal key %q", key)
	}
	return nil
}

// OnChange 注册配置文件变更回调并开始监听
func (l *loader) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.callbacks = append(l.callbacks, fn)
	if l.watching {
		return
	}
	l.watching = true

	l.v.OnConfigChange(func(_ fsnotify.Event) {
		l.mu.Lock()
		cbs := append([]func(){}, l.callbacks...)
		l.mu.Unlock()
		for _, cb := range cbs {
			cb()
		}
	})
	l.v.WatchConfig()
}
