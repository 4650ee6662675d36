// Package migrate applies schema migrations to a database URL.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"user-data-service/internal/infrastructure"
	"user-data-service/pkg/security"
)

// Migrator applies pending schema changes to the database at databaseURL.
type Migrator interface {
	Migrate(ctx context.Context, databaseURL string) error
}

// Goose applies SQL migrations from an fs.FS with goose.
type Goose struct {
	fsys fs.FS
	log  *zap.Logger
	opts infrastructure.DatabaseOptions
}

// NewGoose creates a migrator over the goose SQL files in fsys.
func NewGoose(fsys fs.FS, log *zap.Logger, opts infrastructure.DatabaseOptions) *Goose {
	return &Goose{fsys: fsys, log: log, opts: opts}
}

// Migrate opens its own handle to databaseURL, applies every pending
// migration and closes the handle again.
func (m *Goose) Migrate(ctx context.Context, databaseURL string) (err error) {
	db, err := infrastructure.NewDatabase(databaseURL, m.log, m.opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infrastructure.CloseDatabase(db); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	var dialect goose.Dialect
	switch name := db.Dialector.Name(); name {
	case "postgres":
		dialect = goose.DialectPostgres
	case "sqlite":
		dialect = goose.DialectSQLite3
	default:
		return fmt.Errorf("no migration dialect for %q", name)
	}

	// A provider per call keeps concurrent slots independent; the package
	// level goose state is shared.
	provider, err := goose.NewProvider(dialect, sqlDB, m.fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations to %s: %w", security.MaskURL(databaseURL), err)
	}

	for _, r := range results {
		m.log.Debug("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("path", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	m.log.Info("database migrated",
		zap.String("database", security.MaskURL(databaseURL)),
		zap.Int("applied", len(results)),
	)
	return nil
}

// Command runs an external migration command through the shell with
// DATABASE_URL pointing at the target database.
type Command struct {
	command string
	dir     string
	log     *zap.Logger
}

// NewCommand creates a migrator that runs command in dir. An empty
// dir uses the current working directory.
func NewCommand(command, dir string, log *zap.Logger) *Command {
	return &Command{command: command, dir: dir, log: log}
}

// Migrate runs the command and fails on a non-zero exit status. Combined
// output is included in the error.
func (m *Command) Migrate(ctx context.Context, databaseURL string) error {
	if strings.TrimSpace(m.command) == "" {
		return errors.New("migration command is empty")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", m.command)
	cmd.Dir = m.dir
	cmd.Env = append(os.Environ(), "DATABASE_URL="+databaseURL)

	m.log.Info("running migration command",
		zap.String("command", m.command),
		zap.String("database", security.MaskURL(databaseURL)),
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("migration command %q failed: %w: %s", m.command, err, strings.TrimSpace(string(out)))
	}

	m.log.Debug("migration command finished", zap.String("output", strings.TrimSpace(string(out))))
	return nil
}
