package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	defaultTTL             = time.Hour
	defaultCleanupInterval = time.Minute
)

type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process cache. Expired entries are dropped lazily on read
// and periodically by a janitor goroutine stopped by Close.
type Memory[V any] struct {
	entries    map[string]memoryEntry[V]
	done       chan struct{}
	defaultTTL time.Duration
	mu         sync.RWMutex
	closeOnce  sync.Once
	closed     bool
}

// MemoryOption configures the in-memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	defaultTTL      time.Duration
	cleanupInterval time.Duration
}

// WithDefaultTTL sets the TTL used when Set is called with zero.
// Default: 1 hour.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if d > 0 {
			o.defaultTTL = d
		}
	}
}

// WithCleanupInterval sets how often expired entries are purged.
// Zero disables the janitor. Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.cleanupInterval = d
	}
}

// NewMemory creates an in-memory cache.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := &memoryOptions{
		defaultTTL:      defaultTTL,
		cleanupInterval: defaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory[V]{
		entries:    make(map[string]memoryEntry[V]),
		done:       make(chan struct{}),
		defaultTTL: o.defaultTTL,
	}
	if o.cleanupInterval > 0 {
		go m.janitor(o.cleanupInterval)
	}
	return m
}

// Get retrieves a value by key.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	var zero V

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return zero, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok || e.expired(time.Now()) {
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set stores a value with the given TTL.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	e := memoryEntry[V]{value: value}
	if d := resolveTTL(ttl, m.defaultTTL); d > 0 {
		e.expiresAt = time.Now().Add(d)
	}
	m.entries[key] = e
	return nil
}

// Delete removes a key.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.entries, key)
	return nil
}

// Has checks whether a key exists and has not expired.
func (m *Memory[V]) Has(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the janitor and rejects further operations.
func (m *Memory[V]) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.entries = nil
		m.mu.Unlock()
		close(m.done)
	})
	return nil
}

func (m *Memory[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

var _ Cache[any] = (*Memory[any])(nil)
