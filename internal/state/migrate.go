package state

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate runs all pending database migrations.
func (s *SQLiteStore) Migrate() error {
	if err := s.ready(); err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{s.logger})

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current migration version.
func (s *SQLiteStore) MigrationVersion() (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}

	return goose.GetDBVersion(s.db)
}

// gooseLogger routes goose progress messages to slog at debug level.
type gooseLogger struct {
	l *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}
