package session

import "errors"

// Session errors.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned when a session has expired.
	ErrExpired = errors.New("session: expired")

	// ErrInvalidToken is returned when a session token is empty or malformed.
	ErrInvalidToken = errors.New("session: invalid token")

	// ErrTypeMismatch is returned by Value when the stored value has another type.
	ErrTypeMismatch = errors.New("session: type mismatch")

	// ErrStore wraps failures of the storage driver.
	ErrStore = errors.New("session: store failure")

	// ErrUnknownDriver is returned for an unsupported driver name.
	ErrUnknownDriver = errors.New("session: unknown driver")
)
