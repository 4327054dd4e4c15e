package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestResolveLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, zapcore.InfoLevel, resolveLevel(false))
	assert.Equal(t, zapcore.DebugLevel, resolveLevel(true))

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zapcore.WarnLevel, resolveLevel(true))

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, zapcore.InfoLevel, resolveLevel(false))
}

func TestNewWritesToFileSink(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "warden.log")

	log := New(Options{LogFile: path})
	log.Info("started", zap.String("k", "v"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"started"`)
	assert.Contains(t, string(data), `"k":"v"`)
}
