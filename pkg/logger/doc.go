// Package logger builds the application's slog logger.
//
// New reads the log and sentry configuration sections. Records are
// written as JSON (or text) to stdout or to a size-rotated file, and
// optionally forwarded to Sentry. ContextExtractors add request-scoped
// attributes, such as the request ID, to every record logged with a
// context:
//
//	log, closer, err := logger.New(cfg.Log, cfg.Sentry, requestid.Extractor())
//	if err != nil {
//		return err
//	}
//	defer closer.Close()
//	log.InfoContext(ctx, "request processed", slog.Int("status", 200))
package logger
