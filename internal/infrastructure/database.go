package infrastructure

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"user-data-service/internal/config"
	apperrors "user-data-service/pkg/errors"
	"user-data-service/pkg/logger"
	"user-data-service/pkg/security"
)

// DatabaseOptions tunes the connection pool and statement logging of a handle.
// Zero values keep the driver defaults.
type DatabaseOptions struct {
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	SlowQueryThreshold time.Duration
	LogLevel           string
}

// OptionsFromConfig maps application configuration to DatabaseOptions.
func OptionsFromConfig(cfg *config.Config) DatabaseOptions {
	return DatabaseOptions{
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetime:    time.Duration(cfg.DB.ConnMaxLifetime) * time.Second,
		SlowQueryThreshold: time.Duration(cfg.Logger.SlowQuerySeconds * float64(time.Second)),
		LogLevel:           cfg.Logger.Level,
	}
}

// NewDatabase returns a new GORM handle bound to exactly dsn. Every call
// yields an independent handle; no connection is opened until first use.
func NewDatabase(dsn string, l *zap.Logger, opts DatabaseOptions) (*gorm.DB, error) {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               logger.NewGormLogger(l, opts.SlowQueryThreshold, opts.LogLevel),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	l.Debug("database handle created",
		zap.String("dialect", dialector.Name()),
		zap.String("dsn", security.MaskURL(dsn)),
		zap.Int("max_open_conns", opts.MaxOpenConns),
	)

	return db, nil
}

// dialectorFor picks the GORM driver from the DSN scheme.
func dialectorFor(dsn string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return pgdriver.Open(dsn), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), nil
	case dsn == "":
		return nil, apperrors.NewValidationError("dsn", "connection string is empty")
	default:
		return nil, apperrors.NewValidationError("dsn", "unsupported connection string scheme")
	}
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
