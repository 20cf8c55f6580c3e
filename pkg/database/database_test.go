package database_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/pkg/config"
	"github.com/lightmvc/lightmvc/pkg/database"
)

var migrations = fstest.MapFS{
	"migrations/00001_create_notes.sql": {Data: []byte(`-- +goose Up
CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);

-- +goose Down
DROP TABLE notes;
`)},
	"migrations/00002_add_author.sql": {Data: []byte(`-- +goose Up
ALTER TABLE notes ADD COLUMN author TEXT;

-- +goose Down
ALTER TABLE notes DROP COLUMN author;
`)},
}

func openSQLite(t *testing.T) *database.Conn {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	conn, err := database.Open(context.Background(), "main", config.ConnectionConfig{
		Driver: database.DriverSQLite,
		DSN:    dsn,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen_SQLite(t *testing.T) {
	t.Parallel()

	conn := openSQLite(t)
	require.Equal(t, "main", conn.Name)
	require.Nil(t, conn.Pool)
	require.NoError(t, conn.Healthcheck(context.Background()))
	require.Equal(t, "?, ?, ?", conn.Placeholders(3))
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := database.Open(context.Background(), "main", config.ConnectionConfig{Driver: "oracle", DSN: "x"})
	require.ErrorIs(t, err, database.ErrUnknownDriver)
}

func TestOpen_InvalidPostgresDSN(t *testing.T) {
	t.Parallel()

	_, err := database.Open(context.Background(), "main", config.ConnectionConfig{
		Driver: database.DriverPostgres,
		DSN:    "postgres://%zz",
	})
	require.ErrorIs(t, err, database.ErrParseConfig)
}

func TestPlaceholders_Postgres(t *testing.T) {
	t.Parallel()

	conn := &database.Conn{Driver: database.DriverPostgres}
	require.Equal(t, "$1, $2", conn.Placeholders(2))
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := openSQLite(t)

	require.NoError(t, database.Migrate(ctx, conn, migrations, "migrations", "", slog.New(slog.DiscardHandler)))

	version, err := database.Version(ctx, conn, "")
	require.NoError(t, err)
	require.Equal(t, int64(2), version)

	_, err = conn.DB.ExecContext(ctx, "INSERT INTO notes (body, author) VALUES (?, ?)", "hi", "ada")
	require.NoError(t, err)

	// Re-running is a no-op.
	require.NoError(t, database.Migrate(ctx, conn, migrations, "migrations", "", nil))
}
