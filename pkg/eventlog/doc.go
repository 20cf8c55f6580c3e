// Package eventlog records request lifecycle events.
//
// A Logger decides by phase name which events to keep: a non-empty
// whitelist keeps only the listed phases, otherwise every phase except
// the blacklisted ones is kept. Kept entries go to every sink, a slog
// logger or the event_log table of a database connection.
//
// The table is created by the embedded goose migrations:
//
//	sink := eventlog.NewSQLSink(conn)
//	if err := sink.Migrate(ctx, log); err != nil {
//		return err
//	}
//	events := eventlog.New(cfg.EventLog, sink, eventlog.NewSlogSink(log, slog.LevelDebug))
package eventlog
