// Command migrate applies the schema migrations to DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"user-data-service/internal/app"
	"user-data-service/internal/config"
	"user-data-service/internal/domain/user"
	"user-data-service/internal/infrastructure"
	"user-data-service/internal/migrate"
	"user-data-service/migrations"
	"user-data-service/pkg/security"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig(app.ConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := app.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := app.WithSignal(context.Background())
	defer stop()

	migrator := migrate.NewGoose(migrations.FS, l, infrastructure.OptionsFromConfig(cfg))
	if err := migrator.Migrate(ctx, cfg.DB.URL); err != nil {
		return err
	}

	a, err := app.NewWithConfig(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	count, err := a.Users.CountUsers(ctx, user.Query{})
	if err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}

	l.Info("schema ready",
		zap.String("database", security.MaskURL(cfg.DB.URL)),
		zap.Int64("users", count),
	)
	return nil
}
