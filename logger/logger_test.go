package logger

import (
	"testing"

	"fintrack/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	Init(config.LogConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, ok := logrus.StandardLogger().Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)

	// 非法级别回退到 info
	Init(config.LogConfig{Level: "verbose", Format: "json"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	_, ok = logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestWithComponent(t *testing.T) {
	entry := WithComponent("scheduler")
	assert.Equal(t, "scheduler", entry.Data["component"])
}
