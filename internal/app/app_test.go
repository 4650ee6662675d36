package app

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-data-service/internal/config"
	"user-data-service/internal/domain/user"
)

func TestNewWithConfig(t *testing.T) {
	cfg := &config.Config{
		DB:     config.DatabaseConfig{URL: "file:" + uuid.NewString() + "?mode=memory&cache=shared", MaxOpenConns: 1},
		Logger: config.LoggerConfig{Level: "info"},
	}

	a, err := NewWithConfig(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, a.Users)

	require.NoError(t, a.DB.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, email TEXT NOT NULL)").Error)

	created, err := a.Users.AddUser(context.Background(), user.NewUser{Name: "n", Email: "e"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	require.NoError(t, a.Close())
}

func TestNewWithConfig_BadURL(t *testing.T) {
	cfg := &config.Config{DB: config.DatabaseConfig{URL: "mysql://localhost/app"}}

	a, err := NewWithConfig(cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, a)
}

func TestNew_MissingDatabaseURL(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())
	t.Setenv("DATABASE_URL", "")

	a, err := New()
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "DATABASE_URL is not set")
}

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, ".", ConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/users")
	assert.Equal(t, "/etc/users", ConfigPath())
}

func TestEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "")
	assert.Equal(t, "development", Environment())

	t.Setenv("APP_ENV", "test")
	assert.Equal(t, "test", Environment())
}

func TestWithSignal(t *testing.T) {
	ctx, stop := WithSignal(context.Background())
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not canceled by SIGTERM")
	}
}

func TestWithSignal_Stop(t *testing.T) {
	ctx, stop := WithSignal(context.Background())
	stop()

	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
