package logger

import (
	"os"
	"strings"

	"fintrack/config"

	"github.com/sirupsen/logrus"
)

// Init 按配置初始化全局 logrus
func Init(cfg config.LogConfig) {
	if strings.EqualFold(cfg.Format, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	}
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// WithComponent 返回带组件名的日志入口
func WithComponent(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
