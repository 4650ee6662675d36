package testdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"

	"user-data-service/internal/domain/user"
	apperrors "user-data-service/pkg/errors"
	"user-data-service/pkg/security"
)

// TruncateStatement builds a TRUNCATE ... CASCADE statement for tables.
func TruncateStatement(tables ...string) (string, error) {
	if len(tables) == 0 {
		return "", apperrors.NewValidationError("tables", "at least one table is required")
	}

	quoted := make([]string, len(tables))
	for i, table := range tables {
		if err := security.ValidateIdentifier(table); err != nil {
			return "", apperrors.NewValidationError("tables", fmt.Sprintf("%q: %v", table, err))
		}
		quoted[i] = pgx.Identifier{table}.Sanitize()
	}
	return "TRUNCATE TABLE " + strings.Join(quoted, ", ") + " CASCADE", nil
}

// TruncateTables removes every row from tables and their dependents.
func TruncateTables(ctx context.Context, db *gorm.DB, tables ...string) error {
	stmt, err := TruncateStatement(tables...)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to truncate %s: %w", strings.Join(tables, ", "), err)
	}
	return nil
}

// TestID returns an identifier unique to one test, used to namespace seed rows.
func TestID() string {
	return uuid.NewString()
}

// UserData returns a NewUser whose fields are namespaced by prefix.
func UserData(prefix, name, email string) user.NewUser {
	return user.NewUser{
		Name:  prefix + "-" + name,
		Email: prefix + "-" + email,
	}
}

// SeedUsers inserts n users named name-1..name-n with emails
// email-i@koh.dev, all under prefix, and returns them in insertion order.
func SeedUsers(ctx context.Context, repo user.Repository, prefix string, n int) ([]user.User, error) {
	in := make([]user.NewUser, n)
	for i := range in {
		in[i] = UserData(prefix, fmt.Sprintf("name-%d", i+1), fmt.Sprintf("email-%d@koh.dev", i+1))
	}

	users, err := repo.AddUsers(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users for %s: %w", prefix, err)
	}
	return users, nil
}
