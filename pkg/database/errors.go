package database

import "errors"

var (
	ErrUnknownDriver     = errors.New("database: unknown driver")
	ErrParseConfig       = errors.New("database: failed to parse connection configuration")
	ErrOpenConnection    = errors.New("database: failed to open connection")
	ErrHealthcheckFailed = errors.New("database: healthcheck failed")
	ErrSetDialect        = errors.New("database migrator: failed to set dialect")
	ErrApplyMigrations   = errors.New("database migrator: failed to apply migrations")
)
