package session

import (
	"errors"
	"maps"
	"time"
)

// Session is per-visitor state persisted between requests.
type Session struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	UserID       *string        `json:"user_id,omitempty"` // nil = anonymous session
	Values       map[string]any `json:"values"`
	ID           string         `json:"id"`    // Stable identifier
	Token        string         `json:"token"` // Cookie value, rotated on privilege change

	dirty bool
	isNew bool
}

// New creates a new session with the given ID and token. It stays clean,
// and is never persisted, until a value or user is set on it.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
	}
}

// IsAuthenticated returns true if the session has an associated user.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != ""
}

// SetUser associates the session with a user, or makes it anonymous for "".
func (s *Session) SetUser(id string) {
	if id == "" {
		s.UserID = nil
	} else {
		s.UserID = &id
	}
	s.dirty = true
}

// SetValue stores a value in the session.
func (s *Session) SetValue(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue retrieves a value from the session.
func (s *Session) GetValue(key string) (any, bool) {
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes a value. The session becomes dirty only if the key existed.
func (s *Session) DeleteValue(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool { return s.dirty }

// MarkDirty forces the next save.
func (s *Session) MarkDirty() { s.dirty = true }

// ClearDirty marks the session as saved.
func (s *Session) ClearDirty() { s.dirty = false }

// IsNew returns true until the session has been persisted once.
func (s *Session) IsNew() bool { return s.isNew }

// ClearNew marks the session as persisted.
func (s *Session) ClearNew() { s.isNew = false }

// clone copies s so the stored value shares no map or pointer with it.
func (s *Session) clone() *Session {
	c := *s
	c.Values = maps.Clone(s.Values)
	if s.UserID != nil {
		id := *s.UserID
		c.UserID = &id
	}
	return &c
}

// stored resets the tracking flags of a session read back from a store.
func (s *Session) stored() *Session {
	s.isNew, s.dirty = false, false
	return s
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Value returns a typed session value.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}

	val, ok := s.GetValue(key)
	if !ok {
		return zero, ErrNotFound
	}

	typed, ok := val.(T)
	if !ok {
		return zero, errors.Join(ErrTypeMismatch, errors.New(key))
	}
	return typed, nil
}

// ValueOr returns a typed session value or def when missing or mistyped.
func ValueOr[T any](s *Session, key string, def T) T {
	val, err := Value[T](s, key)
	if err != nil {
		return def
	}
	return val
}
