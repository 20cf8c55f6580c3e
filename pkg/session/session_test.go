package session

import (
	"testing"
	"time"
)

func TestSession_New(t *testing.T) {
	expiresAt := time.Now().Add(24 * time.Hour)
	sess := New("test-id", "test-token", expiresAt)

	if sess.ID != "test-id" {
		t.Errorf("ID = %q, want %q", sess.ID, "test-id")
	}
	if sess.Token != "test-token" {
		t.Errorf("Token = %q, want %q", sess.Token, "test-token")
	}
	if !sess.IsNew() {
		t.Error("IsNew() = false, want true")
	}
	if sess.IsDirty() {
		t.Error("IsDirty() = true for untouched session, want false")
	}
	if sess.Values == nil {
		t.Error("Values is nil")
	}
}

func TestSession_SetUser(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))

	if sess.IsAuthenticated() {
		t.Error("IsAuthenticated() = true for new session, want false")
	}

	sess.SetUser("user-123")
	if !sess.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after SetUser, want true")
	}

	sess.SetUser("")
	if sess.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after clearing user, want false")
	}
}

func TestSession_Values(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))
	sess.ClearDirty()

	sess.DeleteValue("missing")
	if sess.IsDirty() {
		t.Error("DeleteValue of missing key marked session dirty")
	}

	sess.SetValue("count", 3)
	if !sess.IsDirty() {
		t.Error("SetValue did not mark session dirty")
	}

	got, err := Value[int](sess, "count")
	if err != nil || got != 3 {
		t.Errorf("Value[int] = %d, %v; want 3, nil", got, err)
	}

	if _, err := Value[string](sess, "count"); err == nil {
		t.Error("Value[string] on int value returned no error")
	}

	if v := ValueOr(sess, "missing", "fallback"); v != "fallback" {
		t.Errorf("ValueOr = %q, want %q", v, "fallback")
	}
}

func TestSession_IsExpired(t *testing.T) {
	if New("id", "token", time.Now().Add(time.Hour)).IsExpired() {
		t.Error("future session reported expired")
	}
	if !New("id", "token", time.Now().Add(-time.Second)).IsExpired() {
		t.Error("past session reported not expired")
	}
}
