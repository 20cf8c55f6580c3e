package cache

import "errors"

var (
	// ErrNotFound means the key is absent or its entry expired.
	ErrNotFound = errors.New("cache: miss")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("cache: use of closed cache")
	// ErrMarshal and ErrUnmarshal wrap JSON failures of the redis driver.
	ErrMarshal   = errors.New("cache: encode value")
	ErrUnmarshal = errors.New("cache: decode value")
)
