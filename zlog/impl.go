package zlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// loggerImpl 是 Logger 接口的具体实现
type loggerImpl struct {
	slogger *slog.Logger
	level   *slog.LevelVar
}

// newLogger 创建 Logger 实例（内部使用）
func newLogger(config *Config, options *options) (Logger, error) {
	level := new(slog.LevelVar)
	lv, err := parseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	level.Set(lv)

	var out io.Writer
	switch config.Output {
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}
	if options.writer != nil {
		out = options.writer
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.Format == "console" {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	slogger := slog.New(handler)
	if config.Service != "" {
		slogger = slogger.With(slog.String("service", config.Service))
	}

	return &loggerImpl{slogger: slogger, level: level}, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", level)
	}
}

func (l *loggerImpl) Debug(msg string, fields ...Field) {
	l.slogger.LogAttrs(context.Background(), slog.LevelDebug, msg, fields...)
}

func (l *loggerImpl) Info(msg string, fields ...Field) {
	l.slogger.LogAttrs(context.Background(), slog.LevelInfo, msg, fields...)
}

func (l *loggerImpl) Warn(msg string, fields ...Field) {
	l.slogger.LogAttrs(context.Background(), slog.LevelWarn, msg, fields...)
}

func (l *loggerImpl) Error(msg string, fields ...Field) {
	l.slogger.LogAttrs(context.Background(), slog.LevelError, msg, fields...)
}

func (l *loggerImpl) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.slogger.LogAttrs(ctx, slog.LevelDebug, msg, fields...)
}

func (l *loggerImpl) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.slogger.LogAttrs(ctx, slog.LevelInfo, msg, fields...)
}

func (l *loggerImpl) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.slogger.LogAttrs(ctx, slog.LevelWarn, msg, fields...)
}

func (l *loggerImpl) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.slogger.LogAttrs(ctx, slog.LevelError, msg, fields...)
}

func (l *loggerImpl) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &loggerImpl{
		slogger: l.slogger.With(args...),
		level:   l.level,
	}
}

func (l *loggerImpl) SetLevel(level string) error {
	lv, err := parseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(lv)
	return nil
}
