package app

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-data-service/internal/adapter/db/postgres"
	"user-data-service/internal/config"
	"user-data-service/internal/domain/user"
	"user-data-service/internal/infrastructure"
	"user-data-service/pkg/logger"
)

// App holds the dependencies shared by the command line tools
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Users  user.Repository
}

// New loads configuration from CONFIG_PATH and wires the database and repository.
// Configuration is read once here and passed down explicitly.
func New() (*App, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := InitLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewWithConfig(cfg, l)
}

// NewWithConfig wires the database and repository from an already loaded config.
func NewWithConfig(cfg *config.Config, l *zap.Logger) (*App, error) {
	db, err := infrastructure.NewDatabase(cfg.DB.URL, l, infrastructure.OptionsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &App{
		Config: cfg,
		Logger: l,
		DB:     db,
		Users:  postgres.NewUserRepoPG(db, l),
	}, nil
}

// Close releases the database and flushes the logger
func (a *App) Close() error {
	var errs []error

	if a.DB != nil {
		if err := infrastructure.CloseDatabase(a.DB); err != nil {
			a.Logger.Error("failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	if err := SyncLogger(a.Logger); err != nil {
		errs = append(errs, fmt.Errorf("logger sync: %w", err))
	}

	return errors.Join(errs...)
}

// SyncLogger flushes l, ignoring the errors stdout and stderr return on sync.
func SyncLogger(l *zap.Logger) error {
	err := l.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// InitLogger initializes the application logger
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	loggerCfg := logger.Config{
		Level:          cfg.Logger.Level,
		Format:         cfg.Logger.Format,
		OutputPath:     cfg.Logger.OutputPath,
		EnableSampling: cfg.Logger.EnableSampling,
		ServiceName:    cfg.Logger.ServiceName,
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.App.Env,
	}

	return logger.NewWithConfig(loggerCfg)
}

// ConfigPath returns the configuration path
func ConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}

// Environment returns the application environment
func Environment() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
