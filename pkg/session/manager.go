package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Default session configuration.
const (
	DefaultCookieName = "__sid"
	DefaultMaxAge     = 86400 * 30 // 30 days
)

// Manager loads sessions from request cookies and persists them.
type Manager struct {
	store      Store
	cookieName string
	domain     string
	path       string
	maxAge     int
	sameSite   http.SameSite
	secure     bool
	httpOnly   bool
}

// Option configures the Manager.
type Option func(*Manager)

// NewManager creates a session manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		cookieName: DefaultCookieName,
		maxAge:     DefaultMaxAge,
		path:       "/",
		httpOnly:   true,
		sameSite:   http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithCookieName sets the session cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithMaxAge sets the session lifetime in seconds.
func WithMaxAge(seconds int) Option {
	return func(m *Manager) {
		if seconds > 0 {
			m.maxAge = seconds
		}
	}
}

// WithDomain sets the session cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

// WithPath sets the session cookie path.
func WithPath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.path = path
		}
	}
}

// WithSecure sets the session cookie Secure flag.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithSameSite sets the session cookie SameSite attribute.
func WithSameSite(sameSite http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = sameSite
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Store returns the underlying session store.
func (m *Manager) Store() Store {
	return m.store
}

// Load returns the session referenced by the request cookie. A missing,
// unknown or expired session yields a fresh one that is only saved once
// something is stored in it.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		sess, err := m.store.Get(ctx, c.Value)
		switch {
		case err == nil:
			sess.LastActiveAt = time.Now()
			return sess, nil
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired), errors.Is(err, ErrInvalidToken):
		default:
			return nil, err
		}
	}
	return m.newSession()
}

// Save persists a modified session and sets the cookie on w.
// Unchanged sessions, including untouched new ones, are left alone.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil || !sess.IsDirty() {
		return nil
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}
	sess.ClearDirty()
	sess.ClearNew()
	http.SetCookie(w, m.cookie(sess.Token, m.maxAge))
	return nil
}

// RotateToken issues a new cookie token for the session and drops the old one.
// Call it after login to prevent session fixation.
func (m *Manager) RotateToken(ctx context.Context, sess *Session) error {
	old := sess.Token
	token, err := generateToken()
	if err != nil {
		return err
	}
	sess.Token = token
	sess.MarkDirty()

	if !sess.IsNew() {
		if err := m.store.Delete(ctx, old); err != nil {
			sess.Token = old
			return err
		}
	}
	return nil
}

// Destroy deletes the session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess != nil && !sess.IsNew() {
		if err := m.store.Delete(ctx, sess.Token); err != nil {
			return err
		}
	}
	http.SetCookie(w, m.cookie("", -1))
	return nil
}

func (m *Manager) newSession() (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(time.Duration(m.maxAge) * time.Second)
	return New(uuid.NewString(), token, expires), nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
