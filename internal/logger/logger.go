package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level 日志级别，数值越小越详细。
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	current atomic.Int32
	std     = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	current.Store(int32(LevelInfo))
}

// SetLevel 设置全局日志级别。
func SetLevel(l Level) { current.Store(int32(l)) }

// ParseLevel 解析配置文件中的级别字符串，非法值回落到 info。
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func logf(l Level, tag, format string, args ...any) {
	if int32(l) < current.Load() {
		return
	}
	std.Output(3, tag+" "+fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) { logf(LevelDebug, "[DEBUG]", format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, "[INFO]", format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, "[WARN]", format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, "[ERROR]", format, args...) }
