package logger

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// LogHandlerDecorator adds the attributes of its extractors to every record.
// An extracted attribute never overrides one with the same key that was set
// on the record or bound with Logger.With in the current group.
type LogHandlerDecorator struct {
	next       slog.Handler
	extractors []ContextExtractor
	bound      map[string]struct{}
}

// NewLogHandlerDecorator wraps next. Nil extractors are ignored.
func NewLogHandlerDecorator(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	return &LogHandlerDecorator{
		next: next,
		extractors: slices.DeleteFunc(slices.Clone(extractors), func(ex ContextExtractor) bool {
			return ex == nil
		}),
	}
}

func (h *LogHandlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LogHandlerDecorator) Handle(ctx context.Context, rec slog.Record) error {
	if len(h.extractors) > 0 {
		seen := maps.Clone(h.bound)
		if seen == nil {
			seen = make(map[string]struct{}, rec.NumAttrs()+len(h.extractors))
		}
		rec.Attrs(func(a slog.Attr) bool {
			seen[a.Key] = struct{}{}
			return true
		})
		for _, ex := range h.extractors {
			attr, ok := ex(ctx)
			if !ok {
				continue
			}
			if _, dup := seen[attr.Key]; dup {
				continue
			}
			seen[attr.Key] = struct{}{}
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *LogHandlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := maps.Clone(h.bound)
	if bound == nil {
		bound = make(map[string]struct{}, len(attrs))
	}
	for _, a := range attrs {
		bound[a.Key] = struct{}{}
	}
	return &LogHandlerDecorator{next: h.next.WithAttrs(attrs), extractors: h.extractors, bound: bound}
}

// WithGroup starts a fresh key scope: extracted attributes land in the group.
func (h *LogHandlerDecorator) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &LogHandlerDecorator{next: h.next.WithGroup(name), extractors: h.extractors}
}
