package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightmvc/lightmvc/pkg/database"
	"github.com/lightmvc/lightmvc/pkg/eventlog"
	"github.com/lightmvc/lightmvc/pkg/logger"
)

var errUnknownConnection = errors.New("unknown database connection")

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var conn string

	cmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Apply the event log migrations to a database connection",
		Example: "  lightmvc migrate --conn main",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := root.boot()
			if err != nil {
				return err
			}
			if conn == "" {
				conn = cfg.EventLog.Connection
			}
			connCfg, ok := cfg.Database[conn]
			if !ok {
				return fmt.Errorf("%w: %q", errUnknownConnection, conn)
			}

			log, closer, err := logger.New(cfg.Log, cfg.Sentry)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closer.Close()) }()

			ctx := cmd.Context()
			db, err := database.Open(ctx, conn, connCfg)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, db.Close()) }()

			if err := eventlog.NewSQLSink(db).Migrate(ctx, log); err != nil {
				return err
			}
			version, err := database.Version(ctx, db, eventlog.MigrationsTable)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: event log schema at version %d\n", conn, version)
			return nil
		},
	}
	cmd.Flags().StringVar(&conn, "conn", "", "Connection name (defaults to eventlog.connection)")
	return cmd
}
