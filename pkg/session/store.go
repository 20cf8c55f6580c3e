package session

import (
	"context"
	"errors"
	"time"

	"github.com/lightmvc/lightmvc/pkg/cache"
)

// Store persists sessions by token.
type Store interface {
	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist.
	// Returns ErrExpired if the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Save creates or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Delete removes a session by token.
	Delete(ctx context.Context, token string) error
}

// CacheStore keeps sessions in a cache driver (in-memory or Redis).
type CacheStore struct {
	driver cache.Cache[Session]
}

// NewCacheStore wraps a cache driver as a session store.
//
// Example:
//
//	store := session.NewCacheStore(cache.NewMemory[session.Session]())
func NewCacheStore(driver cache.Cache[Session]) *CacheStore {
	return &CacheStore{driver: driver}
}

// Get retrieves a session by its token.
func (s *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	sess, err := s.driver.Get(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStore, err)
	}
	if sess.IsExpired() {
		_ = s.driver.Delete(ctx, token)
		return nil, ErrExpired
	}
	return sess.clone().stored(), nil
}

// Save stores the session until its expiry.
func (s *CacheStore) Save(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	if err := s.driver.Set(ctx, sess.Token, *sess.clone().stored(), ttl); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

// Delete removes a session by token.
func (s *CacheStore) Delete(ctx context.Context, token string) error {
	if err := s.driver.Delete(ctx, token); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

// Close closes the underlying driver.
func (s *CacheStore) Close() error {
	return s.driver.Close()
}

var _ Store = (*CacheStore)(nil)
