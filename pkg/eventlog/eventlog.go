package eventlog

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/lightmvc/lightmvc/pkg/config"
)

// Entry is one logged lifecycle event.
type Entry struct {
	OccurredAt time.Time
	ID         string
	Phase      string
	Method     string
	Path       string
	RequestID  string
	Error      string
	Status     int
}

// Sink stores entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}

// Logger filters lifecycle events by phase and fans them out to sinks.
type Logger struct {
	sinks     []Sink
	whitelist []string
	blacklist []string
}

// New creates a Logger with the filters of cfg.
func New(cfg config.EventLogConfig, sinks ...Sink) *Logger {
	return &Logger{
		sinks:     slices.DeleteFunc(slices.Clone(sinks), func(s Sink) bool { return s == nil }),
		whitelist: cfg.Whitelist,
		blacklist: cfg.Blacklist,
	}
}

// Allowed reports whether events of phase are logged. A non-empty
// whitelist admits only its phases and makes the blacklist irrelevant.
func (l *Logger) Allowed(phase string) bool {
	if len(l.whitelist) > 0 {
		return slices.Contains(l.whitelist, phase)
	}
	return !slices.Contains(l.blacklist, phase)
}

// Log writes e to every sink when its phase is allowed. Missing IDs and
// timestamps are filled in.
func (l *Logger) Log(ctx context.Context, e Entry) error {
	if !l.Allowed(e.Phase) {
		return nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	e.OccurredAt = e.OccurredAt.UTC()

	var errs []error
	for _, s := range l.sinks {
		if err := s.Write(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrWrite}, errs...)...)
	}
	return nil
}
