package container

import "errors"

var (
	ErrNotFound     = errors.New("container: service not registered")
	ErrResolve      = errors.New("container: failed to build service")
	ErrTypeMismatch = errors.New("container: service has unexpected type")
)
