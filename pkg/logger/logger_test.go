package logger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewWithConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := NewWithConfig(Config{
		Level:       "debug",
		Format:      "json",
		OutputPath:  path,
		ServiceName: "user-data-service",
		Environment: "test",
	})
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("hello")
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	_ = l.Sync()
	assert.FileExists(t, path)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("nonsense"))
}

func TestWithContext_AddsKnownFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := With(context.Background(), WorkerIDKey, "2")
	ctx = With(ctx, DatabaseKey, "test_db_2")

	WithContext(ctx, base).Info("provisioning")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "2", fields["worker_id"])
	assert.Equal(t, "test_db_2", fields["database"])
	assert.NotContains(t, fields, "test_id")
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), 10*time.Millisecond, "info")

	ctx := With(context.Background(), TestIDKey, "abc")
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(ctx, time.Now(), sql, nil)
	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	gl.Trace(ctx, time.Now(), sql, errors.New("boom"))
	gl.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "gorm query", entries[0].Message)
	assert.Equal(t, "gorm slow query", entries[1].Message)
	assert.Equal(t, "gorm query error", entries[2].Message)
	assert.Equal(t, "gorm query", entries[3].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["test_id"])

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now(), sql, errors.New("ignored"))
	assert.Equal(t, 4, logs.Len())
}
