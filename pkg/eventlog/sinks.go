package eventlog

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/lightmvc/lightmvc/pkg/database"
)

// Migrations holds the goose migrations creating the event_log table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsTable tracks event log migrations apart from the application's.
const MigrationsTable = "lightmvc_eventlog_migrations"

// SlogSink writes entries as structured log records.
type SlogSink struct {
	log   *slog.Logger
	level slog.Level
}

// NewSlogSink logs entries at level.
func NewSlogSink(log *slog.Logger, level slog.Level) *SlogSink {
	return &SlogSink{log: log, level: level}
}

func (s *SlogSink) Write(ctx context.Context, e Entry) error {
	attrs := []slog.Attr{
		slog.String("id", e.ID),
		slog.String("phase", e.Phase),
		slog.String("method", e.Method),
		slog.String("path", e.Path),
	}
	if e.Status != 0 {
		attrs = append(attrs, slog.Int("status", e.Status))
	}
	if e.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", e.RequestID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}
	s.log.LogAttrs(ctx, s.level, "lifecycle event", attrs...)
	return nil
}

// SQLSink inserts entries into the event_log table.
type SQLSink struct {
	conn   *database.Conn
	insert string
}

// NewSQLSink writes to conn. Call Migrate once before use.
func NewSQLSink(conn *database.Conn) *SQLSink {
	return &SQLSink{
		conn: conn,
		insert: "INSERT INTO event_log (id, phase, method, path, status, request_id, error, occurred_at) VALUES (" +
			conn.Placeholders(8) + ")",
	}
}

// Migrate creates or upgrades the event_log table.
func (s *SQLSink) Migrate(ctx context.Context, log *slog.Logger) error {
	return database.Migrate(ctx, s.conn, Migrations, "migrations", MigrationsTable, log)
}

func (s *SQLSink) Write(ctx context.Context, e Entry) error {
	_, err := s.conn.DB.ExecContext(ctx, s.insert,
		e.ID, e.Phase, e.Method, e.Path, e.Status, e.RequestID, e.Error, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("event_log insert: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.conn.DB.QueryContext(ctx,
		"SELECT id, phase, method, path, status, request_id, error, occurred_at FROM event_log ORDER BY occurred_at DESC, id LIMIT "+
			s.conn.Placeholders(1), limit)
	if err != nil {
		return nil, fmt.Errorf("event_log query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			at time.Time
		)
		if err := rows.Scan(&e.ID, &e.Phase, &e.Method, &e.Path, &e.Status, &e.RequestID, &e.Error, &at); err != nil {
			return nil, fmt.Errorf("event_log scan: %w", err)
		}
		e.OccurredAt = at.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
