package testdb

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"user-data-service/internal/config"
	"user-data-service/internal/infrastructure"
	"user-data-service/internal/migrate"
	apperrors "user-data-service/pkg/errors"
	"user-data-service/pkg/logger"
	"user-data-service/pkg/security"
)

// PlaceholderDatabaseURL replaces DATABASE_URL during provisioning so that
// nothing started from here can reach a non-test database.
const PlaceholderDatabaseURL = "postgres://xxxx"

// Admin performs server-level statements on the root test database.
type Admin interface {
	RecreateDatabase(ctx context.Context, name string) error
	Close() error
}

// AdminOpener connects an Admin to the database at url.
type AdminOpener func(ctx context.Context, url string) (Admin, error)

// GormAdmin is the Admin backed by a GORM handle on the root database.
type GormAdmin struct {
	db  *gorm.DB
	log *zap.Logger
}

// OpenGormAdmin returns an AdminOpener that connects through infrastructure.NewDatabase.
func OpenGormAdmin(log *zap.Logger) AdminOpener {
	return func(ctx context.Context, url string) (Admin, error) {
		db, err := infrastructure.NewDatabase(url, log, infrastructure.DatabaseOptions{})
		if err != nil {
			return nil, err
		}
		return &GormAdmin{db: db, log: log}, nil
	}
}

// DB exposes the underlying handle.
func (a *GormAdmin) DB() *gorm.DB {
	return a.db
}

// RecreateDatabase drops name, terminating open sessions, and creates it empty.
func (a *GormAdmin) RecreateDatabase(ctx context.Context, name string) error {
	if err := security.ValidateIdentifier(name); err != nil {
		return apperrors.NewValidationError("database", fmt.Sprintf("%q: %v", name, err))
	}
	quoted := pgx.Identifier{name}.Sanitize()

	db := a.db.WithContext(ctx)
	if err := db.Exec("DROP DATABASE IF EXISTS " + quoted + " WITH (FORCE)").Error; err != nil {
		return fmt.Errorf("failed to drop database %s: %w", name, err)
	}
	if err := db.Exec("CREATE DATABASE " + quoted).Error; err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}

	a.log.Debug("database recreated", zap.String("database", name))
	return nil
}

// Close closes the admin connection.
func (a *GormAdmin) Close() error {
	return infrastructure.CloseDatabase(a.db)
}

// Provisioner prepares one fresh, migrated database per worker slot.
type Provisioner struct {
	cfg       *config.TestDBConfig
	params    Parameters
	openAdmin AdminOpener
	migrator  migrate.Migrator
	log       *zap.Logger
	setenv    func(key, value string) error
}

// NewProvisioner creates a Provisioner. The admin connection is opened on
// cfg.RootDatabase of the server described by params.
func NewProvisioner(cfg *config.TestDBConfig, params Parameters, openAdmin AdminOpener, migrator migrate.Migrator, log *zap.Logger) *Provisioner {
	return &Provisioner{
		cfg:       cfg,
		params:    params,
		openAdmin: openAdmin,
		migrator:  migrator,
		log:       log,
		setenv:    os.Setenv,
	}
}

// SlotDatabases lists the database names for slots 1..n.
func SlotDatabases(n int) []string {
	names := make([]string, 0, n)
	for slot := 1; slot <= n; slot++ {
		names = append(names, DatabaseName(strconv.Itoa(slot)))
	}
	return names
}

// Run provisions every slot concurrently and waits for all of them. It
// refuses to run unless the configuration is in test mode. The first slot
// failure cancels the others and is returned.
func (p *Provisioner) Run(ctx context.Context) (err error) {
	if !p.cfg.IsTestMode() {
		p.log.Error("provisioning refused", zap.String("mode", p.cfg.Mode))
		return apperrors.ErrNotTestMode
	}

	if err := p.setenv("DATABASE_URL", PlaceholderDatabaseURL); err != nil {
		return fmt.Errorf("failed to override DATABASE_URL: %w", err)
	}

	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	admin, err := p.openAdmin(ctx, p.params.DatabaseURL(p.cfg.RootDatabase))
	if err != nil {
		return fmt.Errorf("failed to connect to root database %s: %w", p.cfg.RootDatabase, err)
	}
	defer func() {
		if cerr := admin.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close admin connection: %w", cerr)
		}
	}()

	p.log.Info("provisioning test databases",
		zap.Int("workers", workers),
		zap.String("root_database", p.cfg.RootDatabase),
		zap.String("server", security.MaskURL(p.params.ServerURL())),
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for slot, name := range SlotDatabases(workers) {
		g.Go(func() error {
			return p.provisionSlot(gctx, admin, slot+1, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.log.Info("test databases ready", zap.Int("workers", workers), zap.Duration("took", time.Since(start)))
	return nil
}

func (p *Provisioner) provisionSlot(ctx context.Context, admin Admin, slot int, name string) error {
	ctx = logger.With(ctx, logger.WorkerIDKey, strconv.Itoa(slot))
	ctx = logger.With(ctx, logger.DatabaseKey, name)
	log := logger.WithContext(ctx, p.log)

	log.Info("migrate start")
	if err := admin.RecreateDatabase(ctx, name); err != nil {
		log.Error("failed to recreate database", zap.Error(err))
		return err
	}
	if err := p.migrator.Migrate(ctx, p.params.DatabaseURL(name)); err != nil {
		log.Error("failed to migrate database", zap.Error(err))
		return fmt.Errorf("slot %d: %w", slot, err)
	}
	log.Info("migrate done")
	return nil
}
