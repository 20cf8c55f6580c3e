package middlewares

import (
	"errors"
	"fmt"
)

// PanicError is what Recover returns in place of a panic.
// Stack is nil when stack capture is disabled.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error, so errors.Is
// matches sentinels passed to panic.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// AsPanicError reports whether err wraps a *PanicError and returns it.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	ok := errors.As(err, &pe)
	return pe, ok
}
