package redis

import "errors"

// Connection errors.
var (
	ErrEmptyConnectionURL = errors.New("redis: connection URL is empty")
	ErrFailedToParseURL   = errors.New("redis: invalid connection URL")
	ErrConnectionFailed   = errors.New("redis: server unreachable")
	ErrHealthcheckFailed  = errors.New("redis: not ready")
)
