// Package logging 构造进程唯一的根 logger；各组件通过 Component 派生子 logger。
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 控制日志输出目标与级别。
type Options struct {
	// Console 通常是 os.Stderr；stdout 保留给报告输出。
	Console io.Writer
	// NoColor 关闭控制台颜色（非 TTY / 测试）。
	NoColor bool
	// File 非空时额外写入滚动日志文件（JSON 行）。
	File    string
	Verbose bool
}

// New 返回根 logger 与关闭函数（关闭文件 sink；没有文件时为 no-op）。
func New(opts Options) (zerolog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		NoColor:    opts.NoColor,
		TimeFormat: time.TimeOnly,
	}}

	closeFn := func() error { return nil }
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), closeFn, err
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writers = append(writers, lj)
		closeFn = lj.Close
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	l := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return l, closeFn, nil
}

// Component 派生带 component 字段的子 logger。
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
