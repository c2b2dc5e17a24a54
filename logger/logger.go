package logger

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger 初始化全局日志记录器
// 创建 JSON 格式的日志处理器,输出到 stdout,级别由 LOG_LEVEL 环境变量控制
func InitLogger() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

// parseLevel 解析日志级别,默认 Debug
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
