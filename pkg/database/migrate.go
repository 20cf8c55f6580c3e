package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultMigrationsTable tracks applied migrations.
const DefaultMigrationsTable = "schema_migrations"

// goose keeps its settings in package state.
var gooseMu sync.Mutex

// Migrate applies the goose migrations found in dir of fsys.
func Migrate(ctx context.Context, c *Conn, fsys fs.FS, dir, table string, log *slog.Logger) error {
	if table == "" {
		table = DefaultMigrationsTable
	}
	if log == nil {
		log = slog.Default()
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&gooseLogger{log: log.With(slog.String("connection", c.Name))})
	goose.SetTableName(table)

	if err := goose.SetDialect(c.Driver); err != nil {
		return errors.Join(ErrSetDialect, err)
	}
	if err := goose.UpContext(ctx, c.DB, dir); err != nil {
		return errors.Join(fmt.Errorf("%w: %s", ErrApplyMigrations, c.Name), err)
	}
	return nil
}

// Version returns the current migration version.
func Version(ctx context.Context, c *Conn, table string) (int64, error) {
	if table == "" {
		table = DefaultMigrationsTable
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetTableName(table)
	if err := goose.SetDialect(c.Driver); err != nil {
		return 0, errors.Join(ErrSetDialect, err)
	}
	return goose.GetDBVersionContext(ctx, c.DB)
}

type gooseLogger struct {
	log *slog.Logger
}

func (g *gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

// Fatalf logs only; goose returns the error to the caller.
func (g *gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...))
}
