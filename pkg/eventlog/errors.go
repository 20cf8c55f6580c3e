package eventlog

import "errors"

// ErrWrite indicates at least one sink failed to store an entry.
var ErrWrite = errors.New("eventlog: write failed")
