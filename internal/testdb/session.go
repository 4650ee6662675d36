package testdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-data-service/internal/config"
	"user-data-service/internal/infrastructure"
	"user-data-service/internal/migrate"
	"user-data-service/migrations"
	apperrors "user-data-service/pkg/errors"
)

// Session is one test process's connection to its worker database.
type Session struct {
	DB       *gorm.DB
	Database string
	Slot     string

	root      *gorm.DB
	lease     *Lease
	container *Container
	log       *zap.Logger
}

// Open binds the calling test process to a provisioned worker database.
//
// The slot comes from TEST_WORKER_ID when set; otherwise a free slot among
// TEST_DB_WORKERS is leased on the root database. With TEST_DB_CONTAINER=true
// a private PostgreSQL container is started and provisioned first. Open
// returns ErrNotTestMode unless APP_ENV (or NODE_ENV) is test. Variables
// missing from the environment are read from .env.test in the package
// directory or the module root.
func Open(ctx context.Context, log *zap.Logger) (*Session, error) {
	if err := LoadEnvFiles(EnvFiles(DefaultEnvFile)...); err != nil {
		return nil, err
	}

	cfg, err := config.LoadTestDBConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.IsTestMode() {
		return nil, apperrors.ErrNotTestMode
	}

	params, err := ResolveParameters(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	s := &Session{log: log}
	fail := func(err error) (*Session, error) {
		return nil, errors.Join(err, s.Close(ctx))
	}

	if cfg.UseContainer {
		s.container, err = StartContainer(ctx, cfg.RootDatabase, log)
		if err != nil {
			return nil, err
		}
		// A private server only has the slots provisioned below.
		params = s.container.Parameters()

		migrator := migrate.NewGoose(migrations.FS, log, infrastructure.DatabaseOptions{})
		if err := NewProvisioner(cfg, params, OpenGormAdmin(log), migrator, log).Run(ctx); err != nil {
			return fail(err)
		}
	}

	name := params.DatabaseName
	s.Slot = params.WorkerID
	if name == "" {
		s.root, err = infrastructure.NewDatabase(params.DatabaseURL(cfg.RootDatabase), log, infrastructure.DatabaseOptions{})
		if err != nil {
			return fail(err)
		}
		sqlDB, err := s.root.DB()
		if err != nil {
			return fail(err)
		}
		s.lease, err = AcquireSlot(ctx, sqlDB, cfg.Workers)
		if err != nil {
			return fail(err)
		}
		s.Slot = strconv.Itoa(s.lease.Slot())
		name = DatabaseName(s.Slot)
	}

	s.DB, err = infrastructure.NewDatabase(params.DatabaseURL(name), log, infrastructure.DatabaseOptions{MaxOpenConns: 5})
	if err != nil {
		return fail(err)
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fail(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fail(fmt.Errorf("failed to connect to test database %s: %w", name, err))
	}
	s.Database = name

	log.Info("test database session opened", zap.String("database", name), zap.String("slot", s.Slot))
	return s, nil
}

// Skippable reports whether err from Open means database tests are simply not
// enabled. Every other error, ErrNoFreeSlot included, should fail the run.
func Skippable(err error) bool {
	return errors.Is(err, apperrors.ErrNotTestMode)
}

// Close releases everything Open acquired, in reverse order.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if s.DB != nil {
		errs = append(errs, infrastructure.CloseDatabase(s.DB))
	}
	if s.lease != nil {
		errs = append(errs, s.lease.Release(ctx))
	}
	if s.root != nil {
		errs = append(errs, infrastructure.CloseDatabase(s.root))
	}
	if s.container != nil {
		errs = append(errs, s.container.Terminate(ctx))
	}
	return errors.Join(errs...)
}
