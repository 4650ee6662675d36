// Command testdb provisions one migrated database per test worker slot.
//
//	APP_ENV=test TEST_DB_WORKERS=4 go run ./cmd/testdb && go test -tags integration ./...
//
// Slots are named test_db_1 .. test_db_N on the server described by the
// TEST_DB_* variables. Migrations are applied with goose from the embedded
// migrations, or with TEST_DB_MIGRATE_COMMAND when it is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"user-data-service/internal/app"
	"user-data-service/internal/config"
	"user-data-service/internal/infrastructure"
	"user-data-service/internal/migrate"
	"user-data-service/internal/testdb"
	"user-data-service/migrations"
	"user-data-service/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("provisioning failed: %v", err)
	}
}

func run() error {
	envFile := flag.String("env-file", testdb.DefaultEnvFile, "optional dotenv file with TEST_DB_* overrides")
	flag.Parse()

	if err := testdb.LoadEnvFiles(*envFile); err != nil {
		return err
	}

	l, err := logger.NewWithConfig(logger.Config{
		Level:       envOr("LOG_LEVEL", "info"),
		Format:      envOr("LOG_FORMAT", "console"),
		OutputPath:  "stdout",
		ServiceName: "testdb",
		Environment: app.Environment(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = app.SyncLogger(l) }()

	cfg, err := config.LoadTestDBConfig()
	if err != nil {
		return fmt.Errorf("failed to load test database config: %w", err)
	}

	params, err := testdb.ResolveParameters(os.LookupEnv)
	if err != nil {
		return err
	}

	var migrator migrate.Migrator = migrate.NewGoose(migrations.FS, l, infrastructure.DatabaseOptions{})
	if cfg.MigrateCommand != "" {
		migrator = migrate.NewCommand(cfg.MigrateCommand, "", l)
	}

	ctx, stop := app.WithSignal(context.Background())
	defer stop()

	p := testdb.NewProvisioner(cfg, params, testdb.OpenGormAdmin(l), migrator, l)
	if err := p.Run(ctx); err != nil {
		l.Error("provisioning failed", zap.Error(err))
		return err
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
