package utils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 全局日志器,未初始化时不输出任何内容
// 只在启动和克隆协程中替换
var Logger zerolog.Logger

const (
	MainLogFilename  = "sitecloner.log"
	ErrorLogFilename = "sitecloner_error.log"
)

// LogConfig 日志配置
type LogConfig struct {
	Level string

	// 日志目录,为空时只输出到控制台
	LogDir string

	// 日志轮转
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
}

// InitLogger 初始化日志系统
//
// 控制台输出到stderr,stdout留给克隆结果统计。
// LogDir不为空时同时写入两个轮转文件:
//   - sitecloner.log: 全部级别
//   - sitecloner_error.log: 只有错误,便于查看抓取失败的URL
func InitLogger(config LogConfig) error {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	writers := []io.Writer{consoleWriter(os.Stderr)}
	if config.LogDir != "" {
		if err := os.MkdirAll(config.LogDir, 0755); err != nil {
			return err
		}
		writers = append(writers,
			config.rotating(MainLogFilename),
			&levelFilter{w: config.rotating(ErrorLogFilename), min: zerolog.ErrorLevel},
		)
	}

	zerolog.SetGlobalLevel(level)
	Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()

	Debugf("日志级别: %s, 日志目录: %q", level, config.LogDir)
	return nil
}

func (c LogConfig) rotating(name string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filepath.Join(c.LogDir, name),
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}
}

// consoleWriter 输出不是终端时(重定向到文件、CI)关闭颜色
func consoleWriter(out *os.File) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()),
	}
}

// levelFilter 只写入min及以上级别的日志
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

// Write 不带级别的写入一律丢弃
func (f *levelFilter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (f *levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

// WithTarget 之后的日志都带上target字段,返回恢复函数
// 批量克隆时用来区分各个站点的日志
func WithTarget(host string) (restore func()) {
	prev := Logger
	Logger = prev.With().Str("target", host).Logger()
	return func() { Logger = prev }
}

// SetOutput 把全局日志输出重定向到w,返回恢复函数
func SetOutput(w io.Writer, level zerolog.Level) (restore func()) {
	prev := Logger
	prevLevel := zerolog.GlobalLevel()
	Logger = zerolog.New(w).Level(level)
	zerolog.SetGlobalLevel(level)

	return func() {
		Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	}
}

func Info(msg string) {
	Logger.Info().Msg(msg)
}

func Infof(format string, args ...interface{}) {
	Logger.Info().Msgf(format, args...)
}

func Warn(msg string) {
	Logger.Warn().Msg(msg)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Error().Msgf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debug().Msgf(format, args...)
}
