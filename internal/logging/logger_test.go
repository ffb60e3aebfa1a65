package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/berfenger/pi30bridge/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerLevel(t *testing.T) {

	assert := assert.New(t)

	logger := NewLogger(config.Config{LogLevel: zap.WarnLevel, LogFormat: "console"})
	assert.Equal(zap.WarnLevel, logger.Level())
	assert.False(logger.Core().Enabled(zap.InfoLevel))
	assert.True(logger.Core().Enabled(zap.ErrorLevel))
}

func TestNewLoggerWritesFile(t *testing.T) {

	assert := assert.New(t)

	logFile := filepath.Join(t.TempDir(), "pi30bridge.log")
	logger := NewLogger(config.Config{
		LogLevel: zap.InfoLevel,
		LogFile: config.LogFileConfig{
			Filename:   logFile,
			MaxSizeMB:  1,
			MaxBackups: 1,
		},
	})
	logger.Info("inverter reachable", zap.String("host", "127.0.0.1"))
	_ = logger.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(string(content), "inverter reachable")
	assert.Contains(string(content), `"host":"127.0.0.1"`)
}
