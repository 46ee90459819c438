package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/redmonkez12/recipe-api/internal/database/migrations"
	"github.com/redmonkez12/recipe-api/internal/logging"
)

// Seams over goose so the migrator can be tested without a live PostgreSQL.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.DownContext(ctx, db, dir, opts...)
	}
	gooseDownToContext = func(ctx context.Context, db *sql.DB, dir string, version int64, opts ...goose.OptionsFunc) error {
		return goose.DownToContext(ctx, db, dir, version, opts...)
	}
	gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.StatusContext(ctx, db, dir, opts...)
	}
	gooseVersionContext = func(ctx context.Context, db *sql.DB) (int64, error) {
		return goose.GetDBVersionContext(ctx, db)
	}
)

// Migrator applies the embedded goose migrations to a PostgreSQL database.
type Migrator struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewMigrator(db *sql.DB, logger *logging.Logger) (*Migrator, error) {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&gooseLogger{logger: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}

	return &Migrator{db: db, logger: logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up(ctx context.Context) error {
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration
func (m *Migrator) Down(ctx context.Context) error {
	if err := gooseDownContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// DownTo rolls back migrations until the database is at version
func (m *Migrator) DownTo(ctx context.Context, version int64) error {
	if version < 0 {
		return fmt.Errorf("invalid target version %d", version)
	}
	if err := gooseDownToContext(ctx, m.db, ".", version); err != nil {
		return fmt.Errorf("failed to roll back to version %d: %w", version, err)
	}
	return nil
}

// Status logs the applied/pending state of every migration
func (m *Migrator) Status(ctx context.Context) error {
	if err := gooseStatusContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

// Version returns the current schema version
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := gooseVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrations lists the embedded migrations in the order they apply.
func Migrations() (goose.Migrations, error) {
	goose.SetBaseFS(migrations.FS)
	return goose.CollectMigrations(".", 0, goose.MaxVersion)
}

// gooseLogger routes goose output through the application logger.
type gooseLogger struct {
	logger *logging.Logger
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
	os.Exit(1)
}
