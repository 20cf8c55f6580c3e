// Package database opens the named connections declared in the database
// section of the configuration and applies goose migrations to them.
//
// Postgres connections use a pgx pool (exposed as Conn.Pool) bridged to
// database/sql; sqlite3 connections use mattn/go-sqlite3. Both are
// reachable through Conn.DB:
//
//	conn, err := database.Open(ctx, "main", cfg.Database["main"])
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	if err := database.Migrate(ctx, conn, migrations, "migrations", "", log); err != nil {
//		return err
//	}
package database
